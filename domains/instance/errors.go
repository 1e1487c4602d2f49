package instance

import "errors"

var (
	// ErrInstanceNotFound se retorna cuando no existe una instancia local
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrDuplicateInstance se retorna al violar la unicidad user/name
	ErrDuplicateInstance = errors.New("instance already exists")

	// ErrAlreadyConnected se retorna cuando se pide QR con sesión abierta
	ErrAlreadyConnected = errors.New("instance is already connected, no QR code needed")

	// ErrQRNotAvailable se retorna cuando el vendor no entrega QR
	ErrQRNotAvailable = errors.New("QR code not available")
)
