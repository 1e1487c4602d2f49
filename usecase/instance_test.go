package usecase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dennis-nst/no-lose/core/config"
	"github.com/dennis-nst/no-lose/core/database"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	pkgError "github.com/dennis-nst/no-lose/pkg/error"
	"github.com/dennis-nst/no-lose/repository"
	"gorm.io/gorm"
)

type testRepos struct {
	db           *gorm.DB
	instance     *repository.InstanceGormRepository
	contact      *repository.ContactGormRepository
	message      *repository.MessageGormRepository
	conversation *repository.ConversationGormRepository
}

func setupTestDB(t *testing.T) testRepos {
	t.Helper()

	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "sqlite"}}
	db, err := database.NewDatabaseWithCustomPath(cfg, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}

	repos := testRepos{
		db:           db,
		instance:     repository.NewInstanceGormRepository(db),
		contact:      repository.NewContactGormRepository(db),
		message:      repository.NewMessageGormRepository(db),
		conversation: repository.NewConversationGormRepository(db),
	}

	ctx := context.Background()
	for _, migrate := range []func(context.Context) error{
		repos.instance.InitSchema,
		repos.contact.InitSchema,
		repos.message.InitSchema,
		repos.conversation.InitSchema,
	} {
		if err := migrate(ctx); err != nil {
			t.Fatalf("failed to migrate schema: %v", err)
		}
	}
	return repos
}

// fakeBridgeClient lets each test script the vendor's behavior per call.
type fakeBridgeClient struct {
	createInstanceFn  func(name string) error
	connectFn         func(name string) (domainBridge.ConnectResponse, error)
	connectionStateFn func(name string) (string, error)
	qrCodeFn          func(name string) (domainBridge.QRCodeResponse, error)
	logoutFn          func(name string) error
	deleteFn          func(name string) error
	fetchContactsFn   func(name string) ([]domainBridge.ContactPayload, error)
	fetchChatsFn      func(name string) ([]domainBridge.ChatPayload, error)
	fetchMessagesFn   func(name, remoteJid string, limit int) ([]domainBridge.MessagePayload, error)
	sendTextFn        func(name, number, text string) (domainBridge.SendResponse, error)
}

func (f *fakeBridgeClient) CreateInstance(_ context.Context, name string) error {
	if f.createInstanceFn != nil {
		return f.createInstanceFn(name)
	}
	return nil
}

func (f *fakeBridgeClient) ConnectInstance(_ context.Context, name string) (domainBridge.ConnectResponse, error) {
	if f.connectFn != nil {
		return f.connectFn(name)
	}
	return domainBridge.ConnectResponse{}, nil
}

func (f *fakeBridgeClient) ConnectionState(_ context.Context, name string) (string, error) {
	if f.connectionStateFn != nil {
		return f.connectionStateFn(name)
	}
	return domainBridge.StateClose, nil
}

func (f *fakeBridgeClient) QRCode(_ context.Context, name string) (domainBridge.QRCodeResponse, error) {
	if f.qrCodeFn != nil {
		return f.qrCodeFn(name)
	}
	return domainBridge.QRCodeResponse{}, nil
}

func (f *fakeBridgeClient) Logout(_ context.Context, name string) error {
	if f.logoutFn != nil {
		return f.logoutFn(name)
	}
	return nil
}

func (f *fakeBridgeClient) Delete(_ context.Context, name string) error {
	if f.deleteFn != nil {
		return f.deleteFn(name)
	}
	return nil
}

func (f *fakeBridgeClient) FetchContacts(_ context.Context, name string) ([]domainBridge.ContactPayload, error) {
	if f.fetchContactsFn != nil {
		return f.fetchContactsFn(name)
	}
	return nil, nil
}

func (f *fakeBridgeClient) FetchChats(_ context.Context, name string) ([]domainBridge.ChatPayload, error) {
	if f.fetchChatsFn != nil {
		return f.fetchChatsFn(name)
	}
	return nil, nil
}

func (f *fakeBridgeClient) FetchMessages(_ context.Context, name, remoteJid string, limit int) ([]domainBridge.MessagePayload, error) {
	if f.fetchMessagesFn != nil {
		return f.fetchMessagesFn(name, remoteJid, limit)
	}
	return nil, nil
}

func (f *fakeBridgeClient) SendText(_ context.Context, name, number, text string) (domainBridge.SendResponse, error) {
	if f.sendTextFn != nil {
		return f.sendTextFn(name, number, text)
	}
	return domainBridge.SendResponse{}, nil
}

func newInstanceService(repos testRepos, client domainBridge.IBridgeClient) domainInstance.IInstanceUsecase {
	return NewInstanceService(repos.instance, client, 0)
}

func TestMapVendorState(t *testing.T) {
	cases := []struct {
		state          string
		status         domainInstance.Status
		clearQR        bool
		stampConnected bool
	}{
		{domainBridge.StateOpen, domainInstance.StatusConnected, true, true},
		{domainBridge.StateConnecting, domainInstance.StatusConnecting, false, false},
		{domainBridge.StateClose, domainInstance.StatusDisconnected, true, false},
		{"some-future-state", domainInstance.StatusDisconnected, true, false},
		{"", domainInstance.StatusDisconnected, true, false},
	}

	for _, c := range cases {
		outcome := mapVendorState(c.state)
		if outcome.status != c.status {
			t.Errorf("state %q: expected status %s, got %s", c.state, c.status, outcome.status)
		}
		if outcome.clearQR != c.clearQR {
			t.Errorf("state %q: expected clearQR=%v", c.state, c.clearQR)
		}
		if outcome.stampConnected != c.stampConnected {
			t.Errorf("state %q: expected stampConnected=%v", c.state, c.stampConnected)
		}
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	repos := setupTestDB(t)
	service := newInstanceService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	first, err := service.Ensure(ctx, 7)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if first.Name != "user_7" {
		t.Errorf("expected derived name user_7, got %s", first.Name)
	}
	if first.Status != domainInstance.StatusDisconnected {
		t.Errorf("expected new instance disconnected, got %s", first.Status)
	}

	second, err := service.Ensure(ctx, 7)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected the same row, got %s and %s", first.ID, second.ID)
	}
}

func TestProvisionShortCircuitsWhenAlreadyOpen(t *testing.T) {
	repos := setupTestDB(t)
	created := false
	client := &fakeBridgeClient{
		connectionStateFn: func(string) (string, error) { return domainBridge.StateOpen, nil },
		createInstanceFn: func(string) error {
			created = true
			return nil
		},
	}
	service := newInstanceService(repos, client)

	resp, err := service.Provision(context.Background(), 1)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if resp.Status != domainInstance.StatusConnected {
		t.Errorf("expected connected, got %s", resp.Status)
	}
	if created {
		t.Error("an open session must not be recreated")
	}
}

func TestProvisionIssuesQR(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectionStateFn: func(string) (string, error) {
			return "", pkgError.NewBridgeError("connectionState failed", 404, `{"error":"not found"}`)
		},
		connectFn: func(string) (domainBridge.ConnectResponse, error) {
			return domainBridge.ConnectResponse{Base64: "data:image/png;base64,QR"}, nil
		},
	}
	service := newInstanceService(repos, client)

	resp, err := service.Provision(context.Background(), 1)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if resp.Status != domainInstance.StatusQR {
		t.Errorf("expected qr status, got %s", resp.Status)
	}
	if resp.QRCode == "" {
		t.Error("expected QR code in response")
	}

	stored, err := repos.instance.GetByUserID(context.Background(), 1)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.QRCode == "" || stored.QRCodeUpdatedAt == nil {
		t.Error("expected QR code persisted with timestamp")
	}
}

func TestProvisionToleratesExistingVendorInstance(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		createInstanceFn: func(string) error {
			return pkgError.NewBridgeError("createInstance failed", 403, `{"error":"already in use"}`)
		},
		connectFn: func(string) (domainBridge.ConnectResponse, error) {
			return domainBridge.ConnectResponse{Base64: "QR"}, nil
		},
	}
	service := newInstanceService(repos, client)

	resp, err := service.Provision(context.Background(), 1)
	if err != nil {
		t.Fatalf("403 on create must be tolerated: %v", err)
	}
	if resp.Status != domainInstance.StatusQR {
		t.Errorf("expected qr status, got %s", resp.Status)
	}
}

func TestProvisionDegradesWhenConnectFails(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectFn: func(string) (domainBridge.ConnectResponse, error) {
			return domainBridge.ConnectResponse{}, pkgError.NewBridgeError("connect failed", 500, "")
		},
	}
	service := newInstanceService(repos, client)

	resp, err := service.Provision(context.Background(), 1)
	if err != nil {
		t.Fatalf("connect failure must degrade, not fail: %v", err)
	}
	if resp.Status != domainInstance.StatusConnecting {
		t.Errorf("expected connecting, got %s", resp.Status)
	}
}

func TestRefreshStatusWithoutInstance(t *testing.T) {
	repos := setupTestDB(t)
	service := newInstanceService(repos, &fakeBridgeClient{})

	resp, err := service.RefreshStatus(context.Background(), 42)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.Status != domainInstance.StatusDisconnected {
		t.Errorf("expected disconnected, got %s", resp.Status)
	}

	// Polling must never create rows as a side effect.
	if _, err := repos.instance.GetByUserID(context.Background(), 42); err == nil {
		t.Error("refresh created an instance row")
	}
}

func TestRefreshStatusVendorErrorReadsAsDisconnected(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectionStateFn: func(string) (string, error) { return domainBridge.StateOpen, nil },
	}
	service := newInstanceService(repos, client)
	ctx := context.Background()

	if _, err := service.Ensure(ctx, 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := service.RefreshStatus(ctx, 1); err != nil {
		t.Fatalf("refresh to connected: %v", err)
	}

	client.connectionStateFn = func(string) (string, error) {
		return "", pkgError.NewBridgeError("bridge unreachable", 0, "")
	}
	resp, err := service.RefreshStatus(ctx, 1)
	if err != nil {
		t.Fatalf("refresh with vendor error: %v", err)
	}
	if resp.Status != domainInstance.StatusDisconnected {
		t.Errorf("expected disconnected, got %s", resp.Status)
	}
}

func TestRefreshStatusClearsQROnConnect(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectFn: func(string) (domainBridge.ConnectResponse, error) {
			return domainBridge.ConnectResponse{Base64: "QR"}, nil
		},
	}
	service := newInstanceService(repos, client)
	ctx := context.Background()

	if _, err := service.Provision(ctx, 1); err != nil {
		t.Fatalf("provision: %v", err)
	}

	client.connectionStateFn = func(string) (string, error) { return domainBridge.StateOpen, nil }
	resp, err := service.RefreshStatus(ctx, 1)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp.Status != domainInstance.StatusConnected {
		t.Errorf("expected connected, got %s", resp.Status)
	}

	stored, err := repos.instance.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.QRCode != "" || stored.QRCodeUpdatedAt != nil {
		t.Error("expected stale QR cleared after connecting")
	}
	if stored.LastConnectedAt == nil {
		t.Error("expected last_connected_at stamped")
	}
}

func TestGetOrRefreshQRWhenAlreadyConnected(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectionStateFn: func(string) (string, error) { return domainBridge.StateOpen, nil },
	}
	service := newInstanceService(repos, client)
	ctx := context.Background()

	if _, err := service.Ensure(ctx, 1); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	_, err := service.GetOrRefreshQR(ctx, 1)
	if err == nil {
		t.Fatal("expected error for connected instance")
	}
	if _, ok := err.(pkgError.ValidationError); !ok {
		t.Errorf("expected a validation error, got %T", err)
	}
}

func TestGetOrRefreshQRWithoutInstance(t *testing.T) {
	repos := setupTestDB(t)
	service := newInstanceService(repos, &fakeBridgeClient{})

	_, err := service.GetOrRefreshQR(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for missing instance")
	}
	if _, ok := err.(pkgError.NotFoundError); !ok {
		t.Errorf("expected a not found error, got %T", err)
	}
}

func TestDisconnectResetsLocallyDespiteVendorFailures(t *testing.T) {
	repos := setupTestDB(t)
	client := &fakeBridgeClient{
		connectFn: func(string) (domainBridge.ConnectResponse, error) {
			return domainBridge.ConnectResponse{Base64: "QR"}, nil
		},
		logoutFn: func(string) error { return pkgError.NewBridgeError("logout failed", 500, "") },
		deleteFn: func(string) error { return pkgError.NewBridgeError("delete failed", 500, "") },
	}
	service := newInstanceService(repos, client)
	ctx := context.Background()

	if _, err := service.Provision(ctx, 1); err != nil {
		t.Fatalf("provision: %v", err)
	}

	if err := service.Disconnect(ctx, 1); err != nil {
		t.Fatalf("disconnect must succeed despite vendor failures: %v", err)
	}

	stored, err := repos.instance.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.Status != domainInstance.StatusDisconnected {
		t.Errorf("expected disconnected, got %s", stored.Status)
	}
	if stored.QRCode != "" {
		t.Error("expected QR cleared on disconnect")
	}
}

func TestApplyConnectionUpdateCapturesProfile(t *testing.T) {
	repos := setupTestDB(t)
	service := newInstanceService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	inst, err := service.Ensure(ctx, 1)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	update := domainBridge.ConnectionUpdateData{State: domainBridge.StateOpen}
	update.Connection = &struct {
		Wid struct {
			User string `json:"user"`
		} `json:"wid"`
		PushName string `json:"pushName"`
	}{PushName: "Dennis"}
	update.Connection.Wid.User = "5215512345678"

	if err := service.ApplyConnectionUpdate(ctx, inst, update); err != nil {
		t.Fatalf("apply update: %v", err)
	}

	stored, err := repos.instance.GetByUserID(ctx, 1)
	if err != nil {
		t.Fatalf("get stored: %v", err)
	}
	if stored.Status != domainInstance.StatusConnected {
		t.Errorf("expected connected, got %s", stored.Status)
	}
	if stored.PhoneNumber != "5215512345678" {
		t.Errorf("expected phone captured, got %q", stored.PhoneNumber)
	}
	if stored.ProfileName != "Dennis" {
		t.Errorf("expected profile name captured, got %q", stored.ProfileName)
	}
}

func TestApplyQRUpdateIgnoresEmptyCode(t *testing.T) {
	repos := setupTestDB(t)
	service := newInstanceService(repos, &fakeBridgeClient{})
	ctx := context.Background()

	inst, err := service.Ensure(ctx, 1)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := service.ApplyQRUpdate(ctx, inst, ""); err != nil {
		t.Fatalf("empty QR update: %v", err)
	}
	stored, _ := repos.instance.GetByUserID(ctx, 1)
	if stored.Status != domainInstance.StatusDisconnected {
		t.Errorf("empty QR must not change state, got %s", stored.Status)
	}

	if err := service.ApplyQRUpdate(ctx, inst, "QRDATA"); err != nil {
		t.Fatalf("QR update: %v", err)
	}
	stored, _ = repos.instance.GetByUserID(ctx, 1)
	if stored.Status != domainInstance.StatusQR || stored.QRCode != "QRDATA" {
		t.Errorf("expected qr status with stored code, got %s / %q", stored.Status, stored.QRCode)
	}
}
