package rest

import (
	"strconv"

	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

var errInvalidContactID = pkgError.ValidationError("Invalid contact id")

// userIDFromCtx resolves the acting user from the X-User-ID header set by
// the upstream identity layer. Panics with a validation error when absent,
// the recovery middleware turns it into a 400.
func userIDFromCtx(c *fiber.Ctx) uint {
	raw := c.Get("X-User-ID")
	if raw == "" {
		raw = c.Query("user_id")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.PanicIfNeeded(pkgError.ValidationError("Missing or invalid X-User-ID header"))
	}
	return uint(id)
}

func queryInt(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
