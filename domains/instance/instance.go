package instance

import (
	"context"
	"fmt"
	"time"

	"github.com/dennis-nst/no-lose/domains/bridge"
)

// Status is the local connection state of a user's bridge instance.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusQR           Status = "qr"
	StatusConnected    Status = "connected"
)

// Instance is one user's WhatsApp bridge session (1:1 with the user).
// It is never hard-deleted; disconnecting is a status transition.
type Instance struct {
	ID              string     `json:"id"`
	UserID          uint       `json:"user_id"`
	Name            string     `json:"instance_name"`
	Status          Status     `json:"status"`
	QRCode          string     `json:"qr_code,omitempty"`
	QRCodeUpdatedAt *time.Time `json:"qr_code_updated_at,omitempty"`
	PhoneNumber     string     `json:"phone_number,omitempty"`
	ProfileName     string     `json:"profile_name,omitempty"`
	LastConnectedAt *time.Time `json:"last_connected_at,omitempty"`
	RawState        string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NameForUser derives the deterministic instance identifier for a user.
func NameForUser(userID uint) string {
	return fmt.Sprintf("user_%d", userID)
}

type StatusResponse struct {
	InstanceName    string `json:"instance_name"`
	Status          Status `json:"status"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	ProfileName     string `json:"profile_name,omitempty"`
	QRCode          string `json:"qr_code,omitempty"`
	LastConnectedAt string `json:"last_connected_at,omitempty"`
}

type QRCodeResponse struct {
	QRCode       string `json:"qr_code"`
	InstanceName string `json:"instance_name"`
}

type IInstanceUsecase interface {
	// Ensure returns the user's instance, creating a disconnected one if absent.
	Ensure(ctx context.Context, userID uint) (Instance, error)
	// Provision creates/connects the vendor instance and fetches the first QR.
	Provision(ctx context.Context, userID uint) (StatusResponse, error)
	// RefreshStatus polls the vendor connection state. It never issues a QR.
	RefreshStatus(ctx context.Context, userID uint) (StatusResponse, error)
	// GetOrRefreshQR fetches a fresh QR; fails when already connected.
	GetOrRefreshQR(ctx context.Context, userID uint) (QRCodeResponse, error)
	// Disconnect logs out and deletes vendor-side best effort, always resets locally.
	Disconnect(ctx context.Context, userID uint) error

	GetByName(ctx context.Context, name string) (Instance, error)

	// Webhook-driven counterparts of the polling path.
	ApplyConnectionUpdate(ctx context.Context, inst Instance, update bridge.ConnectionUpdateData) error
	ApplyQRUpdate(ctx context.Context, inst Instance, qrBase64 string) error
}

type IInstanceRepository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByUserID(ctx context.Context, userID uint) (*Instance, error)
	GetByName(ctx context.Context, name string) (*Instance, error)
	Update(ctx context.Context, inst *Instance) error
}
