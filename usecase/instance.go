package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/sirupsen/logrus"
)

type instanceService struct {
	instanceRepo  domainInstance.IInstanceRepository
	bridgeClient  domainBridge.IBridgeClient
	qrSettleDelay time.Duration
}

func NewInstanceService(
	instanceRepo domainInstance.IInstanceRepository,
	bridgeClient domainBridge.IBridgeClient,
	qrSettleDelay time.Duration,
) domainInstance.IInstanceUsecase {
	return &instanceService{
		instanceRepo:  instanceRepo,
		bridgeClient:  bridgeClient,
		qrSettleDelay: qrSettleDelay,
	}
}

// stateOutcome is the local effect of one vendor-reported connection state.
type stateOutcome struct {
	status         domainInstance.Status
	clearQR        bool
	stampConnected bool
}

// mapVendorState is the single mapping shared by the polling path
// (RefreshStatus) and the push path (ApplyConnectionUpdate) so both views
// converge on the same local state for the same vendor report.
func mapVendorState(state string) stateOutcome {
	switch state {
	case domainBridge.StateOpen:
		return stateOutcome{status: domainInstance.StatusConnected, clearQR: true, stampConnected: true}
	case domainBridge.StateConnecting:
		return stateOutcome{status: domainInstance.StatusConnecting}
	default:
		// close, unknown, or "vendor has no such instance"
		return stateOutcome{status: domainInstance.StatusDisconnected, clearQR: true}
	}
}

func applyStateOutcome(inst *domainInstance.Instance, outcome stateOutcome) {
	inst.Status = outcome.status
	if outcome.clearQR {
		inst.QRCode = ""
		inst.QRCodeUpdatedAt = nil
	}
	if outcome.stampConnected {
		now := time.Now().UTC()
		inst.LastConnectedAt = &now
	}
}

// Ensure returns the user's instance, lazily creating a disconnected one.
// The unique owning-user constraint makes creation idempotent under races.
func (service *instanceService) Ensure(ctx context.Context, userID uint) (domainInstance.Instance, error) {
	existing, err := service.instanceRepo.GetByUserID(ctx, userID)
	if err == nil {
		return *existing, nil
	}
	if !errors.Is(err, domainInstance.ErrInstanceNotFound) {
		return domainInstance.Instance{}, err
	}

	inst := domainInstance.Instance{
		UserID: userID,
		Name:   domainInstance.NameForUser(userID),
		Status: domainInstance.StatusDisconnected,
	}
	if err := service.instanceRepo.Create(ctx, &inst); err != nil {
		if errors.Is(err, domainInstance.ErrDuplicateInstance) {
			// Lost the creation race, the winner's row is ours.
			existing, err := service.instanceRepo.GetByUserID(ctx, userID)
			if err != nil {
				return domainInstance.Instance{}, err
			}
			return *existing, nil
		}
		return domainInstance.Instance{}, err
	}
	return inst, nil
}

// Provision creates the vendor instance if needed and fetches the first QR.
// When the vendor already reports an open session it short-circuits straight
// to connected instead of recreating anything.
func (service *instanceService) Provision(ctx context.Context, userID uint) (domainInstance.StatusResponse, error) {
	inst, err := service.Ensure(ctx, userID)
	if err != nil {
		return domainInstance.StatusResponse{}, err
	}

	state, stateErr := service.bridgeClient.ConnectionState(ctx, inst.Name)
	if stateErr == nil && state == domainBridge.StateOpen {
		applyStateOutcome(&inst, mapVendorState(state))
		if err := service.instanceRepo.Update(ctx, &inst); err != nil {
			return domainInstance.StatusResponse{}, err
		}
		return statusResponse(inst), nil
	}
	// Vendor errors here mean the instance does not exist yet; we create it.

	if err := service.bridgeClient.CreateInstance(ctx, inst.Name); err != nil {
		if be, ok := pkgError.AsBridgeError(err); !ok || be.Code != 403 {
			return domainInstance.StatusResponse{}, err
		}
		// 403 = instance already exists on the bridge, that's fine.
	}

	// The bridge needs a moment after creation before it can hand out a QR.
	time.Sleep(service.qrSettleDelay)

	var qrCode string
	connectResp, err := service.bridgeClient.ConnectInstance(ctx, inst.Name)
	if err != nil {
		logrus.Warnf("Failed to get QR from connect for %s: %v", inst.Name, err)
	} else {
		qrCode = connectResp.Base64
	}

	if qrCode != "" {
		now := time.Now().UTC()
		inst.Status = domainInstance.StatusQR
		inst.QRCode = qrCode
		inst.QRCodeUpdatedAt = &now
	} else {
		inst.Status = domainInstance.StatusConnecting
		inst.QRCode = ""
		inst.QRCodeUpdatedAt = nil
	}

	if err := service.instanceRepo.Update(ctx, &inst); err != nil {
		return domainInstance.StatusResponse{}, err
	}
	return statusResponse(inst), nil
}

// RefreshStatus polls the vendor connection state and persists the mapped
// local state. It never triggers QR issuance; that is an explicit,
// rate-sensitive operation (GetOrRefreshQR).
func (service *instanceService) RefreshStatus(ctx context.Context, userID uint) (domainInstance.StatusResponse, error) {
	existing, err := service.instanceRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return domainInstance.StatusResponse{
				InstanceName: domainInstance.NameForUser(userID),
				Status:       domainInstance.StatusDisconnected,
			}, nil
		}
		return domainInstance.StatusResponse{}, err
	}
	inst := *existing

	state, stateErr := service.bridgeClient.ConnectionState(ctx, inst.Name)
	if stateErr != nil {
		// Vendor errors (including "no such instance") read as closed.
		state = domainBridge.StateClose
	}

	applyStateOutcome(&inst, mapVendorState(state))
	inst.RawState = state

	if err := service.instanceRepo.Update(ctx, &inst); err != nil {
		return domainInstance.StatusResponse{}, err
	}
	return statusResponse(inst), nil
}

// GetOrRefreshQR fetches a fresh QR code from the vendor.
func (service *instanceService) GetOrRefreshQR(ctx context.Context, userID uint) (domainInstance.QRCodeResponse, error) {
	existing, err := service.instanceRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return domainInstance.QRCodeResponse{}, pkgError.NotFoundError("Instance not found. Create one first.")
		}
		return domainInstance.QRCodeResponse{}, err
	}
	inst := *existing

	if state, err := service.bridgeClient.ConnectionState(ctx, inst.Name); err == nil && state == domainBridge.StateOpen {
		return domainInstance.QRCodeResponse{}, pkgError.ValidationError("Instance is already connected. No QR code needed.")
	}

	qrResp, err := service.bridgeClient.QRCode(ctx, inst.Name)
	if err != nil {
		return domainInstance.QRCodeResponse{}, err
	}
	if qrResp.Base64 == "" {
		return domainInstance.QRCodeResponse{}, pkgError.ValidationError("QR code not available. Try creating a new instance.")
	}

	now := time.Now().UTC()
	inst.QRCode = qrResp.Base64
	inst.QRCodeUpdatedAt = &now
	inst.Status = domainInstance.StatusQR

	if err := service.instanceRepo.Update(ctx, &inst); err != nil {
		return domainInstance.QRCodeResponse{}, err
	}

	return domainInstance.QRCodeResponse{
		QRCode:       inst.QRCode,
		InstanceName: inst.Name,
	}, nil
}

// Disconnect logs out and deletes the vendor instance best effort. Local
// state always resets to disconnected; it must never stay stuck on a stale
// "connected" belief because the vendor call failed.
func (service *instanceService) Disconnect(ctx context.Context, userID uint) error {
	existing, err := service.instanceRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			return pkgError.NotFoundError("Instance not found")
		}
		return err
	}
	inst := *existing

	if err := service.bridgeClient.Logout(ctx, inst.Name); err != nil {
		logrus.Warnf("Logout failed for %s (continuing): %v", inst.Name, err)
	}
	if err := service.bridgeClient.Delete(ctx, inst.Name); err != nil {
		logrus.Warnf("Delete failed for %s (continuing): %v", inst.Name, err)
	}

	inst.Status = domainInstance.StatusDisconnected
	inst.QRCode = ""
	inst.QRCodeUpdatedAt = nil

	return service.instanceRepo.Update(ctx, &inst)
}

func (service *instanceService) GetByName(ctx context.Context, name string) (domainInstance.Instance, error) {
	inst, err := service.instanceRepo.GetByName(ctx, name)
	if err != nil {
		return domainInstance.Instance{}, err
	}
	return *inst, nil
}

// ApplyConnectionUpdate is the push-driven counterpart of RefreshStatus.
// Same mapping rules; additionally picks up the profile fields the open
// event carries.
func (service *instanceService) ApplyConnectionUpdate(ctx context.Context, inst domainInstance.Instance, update domainBridge.ConnectionUpdateData) error {
	applyStateOutcome(&inst, mapVendorState(update.State))

	if update.State == domainBridge.StateOpen && update.Connection != nil {
		if update.Connection.Wid.User != "" {
			inst.PhoneNumber = update.Connection.Wid.User
		}
		if update.Connection.PushName != "" {
			inst.ProfileName = update.Connection.PushName
		}
	}

	if raw, err := json.Marshal(update); err == nil {
		inst.RawState = string(raw)
	}

	return service.instanceRepo.Update(ctx, &inst)
}

// ApplyQRUpdate stores a vendor-pushed QR refresh.
func (service *instanceService) ApplyQRUpdate(ctx context.Context, inst domainInstance.Instance, qrBase64 string) error {
	if qrBase64 == "" {
		logrus.Debugf("Empty QR update for instance %s, ignoring", inst.Name)
		return nil
	}

	now := time.Now().UTC()
	inst.QRCode = qrBase64
	inst.QRCodeUpdatedAt = &now
	inst.Status = domainInstance.StatusQR

	return service.instanceRepo.Update(ctx, &inst)
}

func statusResponse(inst domainInstance.Instance) domainInstance.StatusResponse {
	resp := domainInstance.StatusResponse{
		InstanceName: inst.Name,
		Status:       inst.Status,
		PhoneNumber:  inst.PhoneNumber,
		ProfileName:  inst.ProfileName,
	}
	if inst.Status == domainInstance.StatusQR {
		resp.QRCode = inst.QRCode
	}
	if inst.LastConnectedAt != nil {
		resp.LastConnectedAt = inst.LastConnectedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
