package notifications

import (
	"strings"

	apperrors "github.com/artyomka101/appforphone/internal/errors"
	"github.com/artyomka101/appforphone/internal/models"
)

func resolve(list []models.Notification, ref string) (string, error) {
	var match string
	for _, n := range list {
		if n.ID == ref {
			return n.ID, nil
		}
		if strings.HasPrefix(n.ID, ref) {
			if match != "" {
				return "", apperrors.Invalidf("notification reference %q is ambiguous", ref)
			}
			match = n.ID
		}
	}
	if match == "" || ref == "" {
		return "", apperrors.NotFoundf("notification %q not found", ref)
	}
	return match, nil
}
