package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/noah-isme/sma-patrol-api/internal/models"
	appErrors "github.com/noah-isme/sma-patrol-api/pkg/errors"
)

// resolveStudents resolves every id of one cart addition. The whole addition
// is rejected when any id repeats, fails to resolve or lies outside the
// identity's scope.
func resolveStudents(ctx context.Context, roster studentResolver, identity models.Identity, ids []string) ([]models.Student, error) {
	seen := make(map[string]struct{}, len(ids))
	students := make([]models.Student, 0, len(ids))
	var unresolved []string
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if _, dup := seen[id]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %s is listed more than once", id))
		}
		seen[id] = struct{}{}

		student, err := roster.Resolve(ctx, id)
		if err != nil {
			unresolved = append(unresolved, id)
			continue
		}
		if !identity.CoversClass(student.Class) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("student %s is outside your scope", id))
		}
		students = append(students, student)
	}
	if len(unresolved) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown student ids: "+strings.Join(unresolved, ", "))
	}
	return students, nil
}
