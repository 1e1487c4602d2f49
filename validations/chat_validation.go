package validations

import (
	"context"

	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateSendText(ctx context.Context, request domainChat.SendTextRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.PhoneNumber, validation.Required, validation.Length(5, 20)),
		validation.Field(&request.Text, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
