package usecase

import (
	"context"
	"encoding/json"
	"errors"

	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	"github.com/sirupsen/logrus"
)

type webhookService struct {
	instanceUsecase domainInstance.IInstanceUsecase
	chatUsecase     domainChat.IChatUsecase
}

func NewWebhookService(instanceUsecase domainInstance.IInstanceUsecase, chatUsecase domainChat.IChatUsecase) domainBridge.IWebhookUsecase {
	return &webhookService{
		instanceUsecase: instanceUsecase,
		chatUsecase:     chatUsecase,
	}
}

// HandleEvent routes one bridge webhook envelope. Malformed payloads and
// events for unknown instances are dropped without error so the bridge
// does not retry them.
func (service *webhookService) HandleEvent(ctx context.Context, event domainBridge.WebhookEvent) error {
	if event.Instance == "" {
		logrus.Debugf("Webhook event %s without instance, ignoring", event.Event)
		return nil
	}

	inst, err := service.instanceUsecase.GetByName(ctx, event.Instance)
	if err != nil {
		if errors.Is(err, domainInstance.ErrInstanceNotFound) {
			logrus.Infof("Webhook event %s for unknown instance %s, ignoring", event.Event, event.Instance)
			return nil
		}
		return err
	}

	switch event.Event {
	case domainBridge.EventConnectionUpdate:
		return service.handleConnectionUpdate(ctx, inst, event.Data)
	case domainBridge.EventQRCodeUpdated:
		return service.handleQRCodeUpdated(ctx, inst, event.Data)
	case domainBridge.EventMessagesUpsert:
		return service.handleMessagesUpsert(ctx, inst, event.Data)
	default:
		logrus.Debugf("Unhandled webhook event %s for instance %s", event.Event, event.Instance)
		return nil
	}
}

func (service *webhookService) handleConnectionUpdate(ctx context.Context, inst domainInstance.Instance, data json.RawMessage) error {
	var update domainBridge.ConnectionUpdateData
	if err := json.Unmarshal(data, &update); err != nil {
		logrus.Warnf("Malformed connection.update for %s: %v", inst.Name, err)
		return nil
	}
	return service.instanceUsecase.ApplyConnectionUpdate(ctx, inst, update)
}

func (service *webhookService) handleQRCodeUpdated(ctx context.Context, inst domainInstance.Instance, data json.RawMessage) error {
	var qrData domainBridge.QRCodeUpdatedData
	if err := json.Unmarshal(data, &qrData); err != nil {
		logrus.Warnf("Malformed qrcode.updated for %s: %v", inst.Name, err)
		return nil
	}
	return service.instanceUsecase.ApplyQRUpdate(ctx, inst, qrData.QRCode.Base64)
}

// handleMessagesUpsert accepts both a single payload object and an array of
// them; the bridge uses either shape depending on the delivery batch size.
func (service *webhookService) handleMessagesUpsert(ctx context.Context, inst domainInstance.Instance, data json.RawMessage) error {
	payloads, err := decodeMessagePayloads(data)
	if err != nil {
		logrus.Warnf("Malformed messages.upsert for %s: %v", inst.Name, err)
		return nil
	}

	for _, payload := range payloads {
		if _, err := service.chatUsecase.ReconcileMessage(ctx, inst.UserID, payload); err != nil {
			logrus.Warnf("Failed to reconcile message %s for %s: %v", payload.Key.ID, inst.Name, err)
		}
	}
	return nil
}

func decodeMessagePayloads(data json.RawMessage) ([]domainBridge.MessagePayload, error) {
	var batch []domainBridge.MessagePayload
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}

	var single domainBridge.MessagePayload
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, err
	}
	return []domainBridge.MessagePayload{single}, nil
}
