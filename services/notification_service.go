package services

import (
	"context"
	"strings"
	"time"

	"ajanda.link/configs"
	"ajanda.link/configs/configslog"
	"ajanda.link/models"
	"ajanda.link/pkg/attachstore"
	"ajanda.link/repositories"

	"go.uber.org/zap"
)

// NotificationAction bildirimleri tetikleyen etkinlik aksiyonu.
type NotificationAction string

const (
	NoticeActionCreate     NotificationAction = "create"
	NoticeActionReschedule NotificationAction = "reschedule" // Zaman değişti
	NoticeActionUpdate     NotificationAction = "update"     // Zaman değişmedi
	NoticeActionCancel     NotificationAction = "cancel"
)

// Gönderilen SMS metninin üst sınırı.
const smsTextSizeLimit = 500

// INotificationService etkinlik bildirimlerini oluşturup dağıtır. Her alıcı
// bağımsız bir gönderim birimidir: bir alıcıdaki transport hatası loglanır,
// diğer alıcıların gönderimini engellemez ve çağırana hata dönmez.
type INotificationService interface {
	SendEventEmailNotices(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction)
	SendEventTextNotices(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction, broadcast bool)
}

// NotificationService INotificationService arayüzünü uygular.
type NotificationService struct {
	cerRepo    repositories.ICalendarEventRecipientRepository
	dirService IDirectoryService
	entities   IEntityService
	ics        IIcsService
	email      IEmailTransport
	sms        ISmsTransport
	doNotText  IDoNotTextRegistry
}

// NewNotificationService verilen bağımlılıklarla servis oluşturur.
func NewNotificationService(icsService IIcsService, email IEmailTransport, sms ISmsTransport, doNotText IDoNotTextRegistry) INotificationService {
	return &NotificationService{
		cerRepo:    repositories.NewCalendarEventRecipientRepository(),
		dirService: NewDirectoryService(),
		entities:   NewEntityService(),
		ics:        icsService,
		email:      email,
		sms:        sms,
		doNotText:  doNotText,
	}
}

func newNotificationService(cerRepo repositories.ICalendarEventRecipientRepository, dir IDirectoryService, entities IEntityService, icsService IIcsService, email IEmailTransport, sms ISmsTransport, doNotText IDoNotTextRegistry) *NotificationService {
	return &NotificationService{cerRepo: cerRepo, dirService: dir, entities: entities, ics: icsService, email: email, sms: sms, doNotText: doNotText}
}

// SendEventEmailNotices belirlenmiş alıcıya ve view-only olmayan roster
// kullanıcılarına e-posta gönderir. İptalde ek yeniden üretilmez, son
// üretilmiş dosya kullanılır.
func (s *NotificationService) SendEventEmailNotices(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction) {
	viewOnly := false
	roster, err := s.cerRepo.FindActiveByEventID(ctx, ce.ID, repositories.RosterQuery{ViewOnly: &viewOnly})
	if err != nil {
		configslog.Log.Error("E-posta bildirimi: roster okunamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}

	recipient, err := s.entities.ResolveEventRecipient(ctx, ce)
	if err != nil {
		configslog.Log.Error("E-posta bildirimi: alıcı çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		recipient = nil
	}
	externalRcpt := recipient != nil && recipient.EntityType == models.EntityTypeExternal

	parentOrg, err := s.dirService.ResolveParentOrganization(ctx, ce.ParentOrganizationID)
	if err != nil {
		configslog.Log.Error("E-posta bildirimi: üst organizasyon çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}
	var org *models.Organization
	if ce.OrganizationID != nil {
		if org, err = s.dirService.ResolveOrganization(ctx, *ce.OrganizationID); err != nil {
			configslog.Log.Warn("E-posta bildirimi: kampüs çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
			org = nil
		}
	}

	// Katılımcı listesi: belirlenmiş alıcı + roster satırları.
	whoList := make([]string, 0, len(roster)+1)
	if recipient != nil {
		whoList = append(whoList, recipient.FullName())
	}
	for i := range roster {
		whoList = append(whoList, s.rosterEntryName(ctx, &roster[i]))
	}

	// İptal dışında ek her aksiyonda yeniden üretilir. Üretim/yazım hatası
	// bildirimin eksiz devam etmesine yol açar, aksiyonu durdurmaz.
	var attachment *attachstore.Ref
	if action != NoticeActionCancel {
		creator := s.resolveCreator(ctx, ce, actor)
		if attachment, err = s.ics.GenerateAndStore(ctx, ce, creator, org); err != nil {
			configslog.Log.Warn("E-posta bildirimi: ek üretilemedi, eksiz devam ediliyor", zap.Uint("eventID", ce.ID), zap.Error(err))
			attachment = nil
		}
	} else {
		if attachment, err = s.ics.StoredAttachment(ctx, ce.ID); err != nil {
			configslog.Log.Warn("E-posta bildirimi: kayıtlı ek okunamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
			attachment = nil
		}
	}

	if recipient != nil {
		s.sendRecipientEmail(ctx, ce, actor, action, recipient, whoList, externalRcpt, attachment)
	}

	s.sendStaffEmails(ctx, ce, actor, action, roster, parentOrg, org, whoList, externalRcpt, attachment)
}

func (s *NotificationService) sendRecipientEmail(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction, recipient *Recipient, whoList []string, externalRcpt bool, attachment *attachstore.Ref) {
	rcptLoc := loadLocation(recipient.GetTimeZone(configs.DefaultTimeZoneName))

	var subAction string
	switch action {
	case NoticeActionReschedule:
		subAction = " Rescheduled"
	case NoticeActionUpdate:
		subAction = " Updated"
	case NoticeActionCancel:
		subAction = " Canceled"
	}

	apptUser := s.resolveApptUser(ctx, ce, actor)
	if apptUser == nil {
		configslog.Log.Warn("E-posta bildirimi: randevu personeli çözümlenemedi, alıcı e-postası atlandı", zap.Uint("eventID", ce.ID))
		return
	}
	subject := "Appointment With " + apptUser.FullName() + subAction + " - " + ce.DateTimeDisplay(rcptLoc, "")

	var b strings.Builder
	b.WriteString("Event Name: " + ce.Name)
	b.WriteString("\nWhen: " + ce.DateTimeDisplay(rcptLoc, ""))
	if ce.Location != "" {
		b.WriteString("\nWhere: " + ce.Location)
	}
	b.WriteString("\nWho: " + strings.Join(whoList, ", "))
	if ce.Description != "" {
		b.WriteString("\nDescription: " + ce.Description)
	}
	// Yeniden planlama/iptal linkleri şimdilik harici alıcıyla sınırlı.
	if externalRcpt && (action == NoticeActionCreate || action == NoticeActionReschedule) {
		base := configs.SchedsBaseURL()
		b.WriteString("\n\nNeed to reschedule? " + ce.RescheduleURL(base))
		b.WriteString("\nNeed to cancel? " + ce.CancelURL(base))
	}

	s.sendNoticeEmail(ctx, recipient, actor, subject, b.String(), attachment)
}

func (s *NotificationService) sendStaffEmails(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction, roster []models.CalendarEventRecipient, parentOrg *models.ParentOrganization, org *models.Organization, whoList []string, externalRcpt bool, attachment *attachstore.Ref) {
	userIDs, err := s.dirService.CollectRosterUserIDs(ctx, roster)
	if err != nil {
		configslog.Log.Error("E-posta bildirimi: roster kullanıcıları toplanamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}
	if len(userIDs) == 0 {
		return
	}
	users, err := s.dirService.ResolveUsers(ctx, userIDs)
	if err != nil {
		configslog.Log.Error("E-posta bildirimi: roster kullanıcıları çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}

	var subject, intro string
	switch action {
	case NoticeActionReschedule:
		subject, intro = "Calendar Event Rescheduled - "+parentOrg.Name, "Calendar event has been rescheduled"
	case NoticeActionUpdate:
		subject, intro = "Calendar Event Updated - "+parentOrg.Name, "Calendar event has been updated"
	case NoticeActionCancel:
		subject, intro = "Calendar Event Canceled - "+parentOrg.Name, "Calendar event has been canceled"
	default:
		subject, intro = "New Calendar Event - "+parentOrg.Name, "A new calendar event has been scheduled"
	}

	campus := "All Campuses"
	if org != nil {
		campus = org.Name
	} else if externalRcpt {
		campus = "N/A"
	}

	var b strings.Builder
	b.WriteString("Hi {r_fname},\n" + intro + ".\n\n")
	b.WriteString("Event Name: " + ce.Name)
	b.WriteString("\nCampus: " + campus)
	b.WriteString("\nWhen: {dt_display}")
	if ce.Location != "" {
		b.WriteString("\nWhere: " + ce.Location)
	}
	b.WriteString("\nWho: " + strings.Join(whoList, ", "))
	if ce.Description != "" {
		b.WriteString("\nDescription: " + ce.Description)
	}
	template := b.String()

	// {dt_display} her kullanıcının kendi saat diliminde doldurulur.
	for i := range users {
		user := users[i]
		loc := loadLocation(user.GetTimeZone(configs.DefaultTimeZoneName))
		message := strings.ReplaceAll(template, "{dt_display}", ce.DateTimeDisplay(loc, ""))
		s.sendNoticeEmail(ctx, userRecipient(&user), actor, subject, message, attachment)
	}
}

// SendEventTextNotices randevu türü etkinlikler için SMS gönderir.
// broadcast true ise alıcıya ek olarak roster kullanıcılarına da gider.
func (s *NotificationService) SendEventTextNotices(ctx context.Context, ce *models.CalendarEvent, actor *models.User, action NotificationAction, broadcast bool) {
	if !ce.IsAppointment() {
		return
	}
	recipient, err := s.entities.ResolveEventRecipient(ctx, ce)
	if err != nil {
		configslog.Log.Error("SMS bildirimi: alıcı çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		recipient = nil
	}
	var org *models.Organization
	if ce.OrganizationID != nil {
		if org, err = s.dirService.ResolveOrganization(ctx, *ce.OrganizationID); err != nil {
			configslog.Log.Error("SMS bildirimi: kampüs çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
			return
		}
	}
	if org == nil { // Randevular kampüs hattı olmadan mesaj gönderemez
		configslog.Log.Warn("SMS bildirimi: etkinliğin kampüsü yok, gönderim atlandı", zap.Uint("eventID", ce.ID))
		return
	}
	apptUser := s.resolveApptUser(ctx, ce, actor)
	if apptUser == nil {
		configslog.Log.Warn("SMS bildirimi: randevu personeli çözümlenemedi, gönderim atlandı", zap.Uint("eventID", ce.ID))
		return
	}

	isUpdate := action == NoticeActionReschedule || action == NoticeActionUpdate

	if recipient != nil {
		loc := loadLocation(recipient.GetTimeZone(configs.DefaultTimeZoneName))
		start := ce.StartAt.In(loc)
		msgMiddle := "scheduled for"
		if isUpdate {
			msgMiddle = "updated:"
		}
		message := ce.TypeOf.Display() + " with " + apptUser.FullName() + " from " + org.Name +
			" has been " + msgMiddle + " " + formatSmsTime(start) + " on " + formatSmsDate(start) + "."
		s.sendNoticeText(ctx, recipient, actor, message, org)
	}

	if !broadcast {
		return
	}

	viewOnly := false
	roster, err := s.cerRepo.FindActiveByEventID(ctx, ce.ID, repositories.RosterQuery{ViewOnly: &viewOnly})
	if err != nil {
		configslog.Log.Error("SMS bildirimi: roster okunamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}
	userIDs, err := s.dirService.CollectRosterUserIDs(ctx, roster)
	if err != nil {
		configslog.Log.Error("SMS bildirimi: roster kullanıcıları toplanamadı", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}
	users, err := s.dirService.ResolveUsers(ctx, userIDs)
	if err != nil {
		configslog.Log.Error("SMS bildirimi: roster kullanıcıları çözümlenemedi", zap.Uint("eventID", ce.ID), zap.Error(err))
		return
	}

	rcptName := ""
	if recipient != nil {
		rcptName = recipient.FullName()
	}
	// Mesaj girişi kullanıcıya ve aksiyona göre değişir.
	apptUserMsg := ce.TypeOf.Display() + " has been scheduled with " + rcptName + " from " + org.Name + " for"
	byName := apptUser.FullName()
	if actor != nil {
		byName = actor.FullName()
	}
	inclMsg := `You have been included in calendar event "` + ce.Name + `" from ` + org.Name + " by " + byName + " for"
	updateMsg := `Calendar event "` + ce.Name + `" at ` + org.Name + " has been updated:"

	for i := range users {
		user := users[i]
		loc := loadLocation(user.GetTimeZone(configs.DefaultTimeZoneName))
		start := ce.StartAt.In(loc)
		var msgStart string
		switch {
		case isUpdate:
			msgStart = updateMsg // Güncellemede tüm kullanıcılar için aynı
		case ce.ApptUserID != nil && user.ID == *ce.ApptUserID:
			msgStart = apptUserMsg
		default:
			msgStart = inclMsg
		}
		message := msgStart + " " + formatSmsTime(start) + " on " + formatSmsDate(start) + "."
		s.sendNoticeText(ctx, userRecipient(&user), actor, message, org)
	}
}

// sendNoticeEmail tek alıcıya gönderim. Hata loglanır, yukarı taşınmaz.
func (s *NotificationService) sendNoticeEmail(ctx context.Context, target *Recipient, actor *models.User, subject, message string, attachment *attachstore.Ref) {
	if target.Email == "" {
		configslog.Log.Info("E-posta adresi boş, gönderim atlandı",
			zap.String("recipient", target.FullName()), zap.String("type", string(target.EntityType)))
		return
	}
	body := strings.ReplaceAll(message, "{r_fname}", target.FirstName)

	orgID := target.OrganizationID
	if orgID == nil && actor != nil {
		orgID = actor.OrganizationID
	}
	payload := EmailPayload{
		MessageType: "NOTEMP", RecipientType: target.EntityType, RecipientID: target.ID,
		OrganizationID: orgID, To: target.Email, Subject: subject, BodyText: body,
		ContentType: "text/html", Attachment: attachment,
	}
	if actor != nil {
		payload.UserID = actor.ID
		payload.From = actor.FullName()
		payload.ReplyTo = actor.Email
	}

	result := s.email.SendEmail(ctx, payload)
	if !result.Success {
		configslog.Log.Error("Etkinlik bildirim e-postası gönderilemedi",
			zap.String("recipient", target.FullName()), zap.String("type", string(target.EntityType)),
			zap.String("errorText", result.ErrorText), zap.String("errorCode", result.ErrorCode))
	}
}

// sendNoticeText tek alıcıya SMS. Numara yoksa veya engelliyse sessizce atlanır.
func (s *NotificationService) sendNoticeText(ctx context.Context, target *Recipient, actor *models.User, message string, org *models.Organization) {
	if target.Phone == "" {
		configslog.Log.Info("Telefon numarası boş, SMS atlandı", zap.String("recipient", target.FullName()))
		return
	}
	if target.DoNotText || s.doNotText.DoNotTextPhone(ctx, org.ID, target.Phone) {
		configslog.Log.Info("Numara mesaj engel listesinde, SMS atlandı",
			zap.String("recipient", target.FullName()), zap.String("campus", org.Name))
		return
	}

	payload := SmsPayload{
		MessageType: "NOTEMP", RecipientType: target.EntityType, RecipientID: target.ID,
		RecipientPhone: target.Phone, SmsPhone: org.SmsPhone, Message: truncate(message, smsTextSizeLimit),
	}
	if actor != nil {
		payload.UserID = actor.ID
	}

	result := s.sms.SendSms(ctx, payload)
	if !result.Success {
		configslog.Log.Error("Etkinlik bildirim SMS'i gönderilemedi",
			zap.String("recipient", target.FullName()), zap.String("type", string(target.EntityType)),
			zap.String("errorText", result.ErrorText), zap.String("errorCode", result.ErrorCode))
	}
}

// rosterEntryName roster satırının görüntüleme adı.
func (s *NotificationService) rosterEntryName(ctx context.Context, cer *models.CalendarEventRecipient) string {
	if cer.EntityName != "" {
		return cer.EntityName
	}
	rcpt, err := s.entities.ResolveEntity(ctx, cer.EntityType, cer.EntityID)
	if err != nil {
		configslog.Log.Warn("Roster satırı adı çözümlenemedi",
			zap.String("type", string(cer.EntityType)), zap.Uint("id", cer.EntityID), zap.Error(err))
		return string(cer.EntityType)
	}
	return rcpt.FullName()
}

func (s *NotificationService) resolveApptUser(ctx context.Context, ce *models.CalendarEvent, fallback *models.User) *models.User {
	if ce.ApptUserID != nil {
		if u, err := s.dirService.ResolveUser(ctx, *ce.ApptUserID); err == nil {
			return u
		}
	}
	return fallback
}

func (s *NotificationService) resolveCreator(ctx context.Context, ce *models.CalendarEvent, fallback *models.User) *models.User {
	if ce.CreatedBy != 0 {
		if u, err := s.dirService.ResolveUser(ctx, ce.CreatedBy); err == nil {
			return u
		}
	}
	return fallback
}

// userRecipient personel kullanıcısını gönderim hedefi olarak sarar.
func userRecipient(u *models.User) *Recipient {
	return &Recipient{
		EntityType: models.EntityTypeUser, ID: u.ID, FirstName: u.FirstName, LastName: u.LastName,
		Email: u.Email, Phone: u.Phone, TimeZone: u.TimeZone, OrganizationID: u.OrganizationID,
	}
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		configslog.SLog.Warnf("Saat dilimi yüklenemedi (%s), varsayılan kullanılıyor", name)
		return configs.DefaultTimeZone()
	}
	return loc
}

// formatSmsTime "2:30 PM PDT".
func formatSmsTime(t time.Time) string {
	return t.Format("3:04 PM MST")
}

// formatSmsDate "Monday July 17, 2020".
func formatSmsDate(t time.Time) string {
	return t.Format("Monday January 2, 2006")
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

var _ INotificationService = (*NotificationService)(nil)
