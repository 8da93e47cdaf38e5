package services

import (
	"context"

	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"

	"go.uber.org/zap"
)

// SendResult transport sağlayıcısının döndürdüğü sonuç. Success false ise
// hata alanları sağlayıcının verdiği metin/kodu taşır; çağıran taraf bunu
// sadece loglar, hata olarak yukarı taşımaz.
type SendResult struct {
	Success   bool
	ErrorText string
	ErrorCode string
}

// EmailPayload tek alıcıya gidecek e-posta.
type EmailPayload struct {
	MessageType    string // "NOTEMP"
	UserID         uint   // Gönderen personel
	RecipientType  models.RecipientEntityType
	RecipientID    uint
	OrganizationID *uint
	To             string
	From           string
	ReplyTo        string
	Subject        string
	BodyText       string
	ContentType    string
	Attachment     *attachstore.Ref
}

// SmsPayload tek alıcıya gidecek kısa mesaj.
type SmsPayload struct {
	MessageType    string
	UserID         uint
	RecipientType  models.RecipientEntityType
	RecipientID    uint
	RecipientPhone string
	SmsPhone       string // Gönderim yapılacak organizasyon hattı
	Message        string
}

// IEmailTransport dış e-posta sağlayıcısı.
type IEmailTransport interface {
	SendEmail(ctx context.Context, payload EmailPayload) SendResult
}

// ISmsTransport dış SMS sağlayıcısı.
type ISmsTransport interface {
	SendSms(ctx context.Context, payload SmsPayload) SendResult
}

// IDoNotTextRegistry organizasyon bazlı mesaj engel listesi.
type IDoNotTextRegistry interface {
	DoNotTextPhone(ctx context.Context, organizationID uint, phone string) bool
}

// IActionExecutor randevu durum değişimlerinde tetiklenen dış aksiyon
// kancası. Etkileri bu çekirdeğin dışındadır.
type IActionExecutor interface {
	ExecuteActions(ctx context.Context, triggerKey string, recipient *Recipient, staffUser *models.User)
}

// LogEmailTransport gerçek sağlayıcı bağlanana kadar gönderimi logla geçen
// varsayılan uygulama.
type LogEmailTransport struct{}

func (LogEmailTransport) SendEmail(_ context.Context, payload EmailPayload) SendResult {
	configslog.Log.Info("E-posta gönderimi (transport bağlı değil)",
		zap.String("to", payload.To),
		zap.String("subject", payload.Subject),
		zap.Bool("attachment", payload.Attachment != nil))
	return SendResult{Success: true}
}

// LogSmsTransport varsayılan log uygulaması.
type LogSmsTransport struct{}

func (LogSmsTransport) SendSms(_ context.Context, payload SmsPayload) SendResult {
	configslog.Log.Info("SMS gönderimi (transport bağlı değil)",
		zap.String("phone", payload.RecipientPhone),
		zap.String("message", payload.Message))
	return SendResult{Success: true}
}

// AllowAllTextRegistry engel listesi bağlanana kadar her numaraya izin verir.
type AllowAllTextRegistry struct{}

func (AllowAllTextRegistry) DoNotTextPhone(_ context.Context, _ uint, _ string) bool { return false }

// LogActionExecutor aksiyon kancasının varsayılan log uygulaması.
type LogActionExecutor struct{}

func (LogActionExecutor) ExecuteActions(_ context.Context, triggerKey string, recipient *Recipient, staffUser *models.User) {
	fields := []zap.Field{zap.String("trigger", triggerKey)}
	if recipient != nil {
		fields = append(fields, zap.String("recipient", recipient.FullName()))
	}
	if staffUser != nil {
		fields = append(fields, zap.Uint("staffUserID", staffUser.ID))
	}
	configslog.Log.Info("Aksiyon kancası tetiklendi", fields...)
}

var (
	_ IEmailTransport    = LogEmailTransport{}
	_ ISmsTransport      = LogSmsTransport{}
	_ IDoNotTextRegistry = AllowAllTextRegistry{}
	_ IActionExecutor    = LogActionExecutor{}
)
