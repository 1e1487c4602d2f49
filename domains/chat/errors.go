package chat

import "errors"

var (
	// ErrContactNotFound se retorna cuando no se encuentra un contacto
	ErrContactNotFound = errors.New("contact not found")

	// ErrMessageNotFound se retorna cuando no se encuentra un mensaje
	ErrMessageNotFound = errors.New("message not found")

	// ErrConversationNotFound se retorna cuando no hay conversación activa
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrDuplicateMessage indica que la clave externa ya existe (dedup)
	ErrDuplicateMessage = errors.New("message already exists")

	// ErrMissingExternalKey indica un payload sin clave externa (se descarta)
	ErrMissingExternalKey = errors.New("message payload has no external key")

	// ErrGroupChat indica tráfico de grupos, fuera del modelo de contactos
	ErrGroupChat = errors.New("group chats are not supported")

	// ErrContactNotLinked indica un contacto sin remote jid para sync
	ErrContactNotLinked = errors.New("contact has no bridge remote jid, sync contacts first")

	// ErrNotConnected indica que la instancia del usuario no está conectada
	ErrNotConnected = errors.New("whatsapp not connected, scan the QR code first")
)
