// Package whatsapp lets a participant in the waiting room nudge the partner
// with a WhatsApp message.
package whatsapp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-journey/internal/roster"
)

// Sender delivers a text message to a phone number
type Sender interface {
	Send(ctx context.Context, phoneNumber, message string) error
}

// Config holds the WhatsApp session settings
type Config struct {
	DataDir string
}

// Service is a linked WhatsApp device
type Service struct {
	client *whatsmeow.Client
	cfg    *Config
	log    zerolog.Logger
}

// NewService opens the device store and creates the client
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.ToSlash(filepath.Join(cfg.DataDir, "whatsmeow.db")))
	// sqlstore falls back to a no-op logger when given nil
	container, err := sqlstore.New(ctx, "sqlite3", dsn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	s := &Service{
		client: whatsmeow.NewClient(deviceStore, nil),
		cfg:    cfg,
		log:    log.With().Str("component", "WhatsApp").Logger(),
	}
	s.client.AddEventHandler(s.eventHandler)
	return s, nil
}

// Connect connects to WhatsApp. An unpaired device prints a QR code to the
// terminal and blocks until pairing finished or ctx is done.
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, err := s.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get QR channel: %w", err)
	}
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			s.client.Disconnect()
			return ctx.Err()
		case evt, ok := <-qrChan:
			if !ok {
				return nil
			}
			switch evt.Event {
			case whatsmeow.QRChannelEventCode:
				printQR(evt.Code)
			case whatsmeow.QRChannelSuccess.Event:
				s.log.Info().Msg("Device paired")
				return nil
			default:
				s.log.Warn().Str("event", evt.Event).Msg("Pairing event")
				if evt.Error != nil {
					return fmt.Errorf("failed to pair device: %w", evt.Error)
				}
			}
		}
	}
}

func printQR(code string) {
	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Printf("QR Code: %s\n", code)
		fmt.Println("Please scan this QR code with WhatsApp to link the nudge sender.")
		return
	}
	fmt.Println("\n" + q.ToSmallString(false))
	fmt.Println("📱 Scan the QR code above with WhatsApp:")
	fmt.Println("   1. Open WhatsApp on your phone")
	fmt.Println("   2. Go to Settings > Linked Devices")
	fmt.Println("   3. Tap 'Link a Device'")
	fmt.Println()
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// Send delivers message to phoneNumber after checking the number is on
// WhatsApp
func (s *Service) Send(ctx context.Context, phoneNumber, message string) error {
	if !s.client.IsConnected() {
		return fmt.Errorf("whatsapp client is not connected")
	}

	phoneNumber = roster.InternationalNumber(phoneNumber)

	resp, err := s.client.IsOnWhatsApp(ctx, []string{"+" + phoneNumber})
	if err != nil {
		return fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return fmt.Errorf("number %s is not registered on WhatsApp", phoneNumber)
	}
	jid := resp[0].JID

	s.log.Debug().Str("jid", jid.String()).Str("phone", phoneNumber).Msg("Sending message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		if strings.Contains(err.Error(), "unknown server") || strings.Contains(err.Error(), "can't send message") {
			return fmt.Errorf("failed to send message to %s (JID: %s), the recipient may need to message the linked number first: %w", phoneNumber, jid.String(), err)
		}
		return fmt.Errorf("failed to send message: %w", err)
	}

	s.log.Info().Str("id", sent.ID).Time("timestamp", sent.Timestamp).Msg("Message sent")
	return nil
}

// eventHandler handles incoming WhatsApp events
func (s *Service) eventHandler(evt any) {
	switch evt := evt.(type) {
	case *events.Message:
		if evt.Info.IsFromMe {
			return
		}
		s.log.Info().
			Str("sender", evt.Info.Sender.String()).
			Str("message", evt.Message.GetConversation()).
			Msg("Received message")
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Warn().Msg("Logged out from WhatsApp")
	}
}
