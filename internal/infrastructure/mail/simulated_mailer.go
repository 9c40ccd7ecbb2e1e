package mail

import (
	"context"
	"sync"

	appbilling "github.com/jhoicas/facturacion-dte/internal/application/billing"
	"github.com/jhoicas/facturacion-dte/pkg/logger"
)

// ModeSimulated modo sin transporte real.
const ModeSimulated = "simulado"

// SimulatedMailer registra el mensaje en el log en lugar de enviarlo.
type SimulatedMailer struct {
	log *logger.Logger

	mu   sync.Mutex
	sent []appbilling.OutgoingMail
}

// NewSimulatedMailer crea el relay simulado.
func NewSimulatedMailer(log *logger.Logger) *SimulatedMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatedMailer{log: log}
}

var _ appbilling.Mailer = (*SimulatedMailer)(nil)

// Send registra el envío.
func (m *SimulatedMailer) Send(ctx context.Context, msg *appbilling.OutgoingMail) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	m.log.Info().
		Str("para", msg.To).
		Str("asunto", msg.Subject).
		Strs("adjuntos", names).
		Msg("correo simulado")

	m.mu.Lock()
	m.sent = append(m.sent, *msg)
	m.mu.Unlock()
	return nil
}

// Mode devuelve ModeSimulated.
func (m *SimulatedMailer) Mode() string { return ModeSimulated }

// Sent copia de los mensajes registrados.
func (m *SimulatedMailer) Sent() []appbilling.OutgoingMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]appbilling.OutgoingMail(nil), m.sent...)
}
