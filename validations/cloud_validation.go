package validations

import (
	"context"

	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

func ValidateCloudSendText(ctx context.Context, request domainCloud.SendTextRequest) error {
	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.To, validation.Required, is.Digit, validation.Length(5, 20)),
		validation.Field(&request.Text, validation.Required),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}
