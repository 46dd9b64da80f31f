package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/terraincognita07/tandem/internal/models"
	"github.com/terraincognita07/tandem/internal/security"
	"github.com/terraincognita07/tandem/internal/services"
)

const temporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

type PasswordResetter interface {
	ResetPassword(ctx context.Context, email string, password string) (models.User, error)
}

// RunResetPasswordCommand replaces the account password with a generated one
// and prints it once.
func RunResetPasswordCommand(ctx context.Context, resetter PasswordResetter, email string, out io.Writer) error {
	if strings.TrimSpace(email) == "" {
		return errors.New("email is required")
	}

	temporaryPassword, err := generateTemporaryPassword(12)
	if err != nil {
		return fmt.Errorf("generate temporary password: %w", err)
	}

	user, err := resetter.ResetPassword(ctx, email, temporaryPassword)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("user %s not found", strings.ToLower(strings.TrimSpace(email)))
		}
		return fmt.Errorf("reset password: %w", err)
	}

	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Account: %s\n", user.Email)
	fmt.Fprintf(out, "Temporary password: %s\n", temporaryPassword)
	return nil
}

func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}
	return security.RandomString(length, temporaryPasswordAlphabet)
}
