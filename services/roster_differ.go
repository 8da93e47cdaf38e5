package services

import (
	"fmt"
	"strconv"
	"strings"

	"ajanda.link/models"
)

// RosterEntry istenen roster durumunun tipli satırı. Kimlik
// (EntityType, EntityID) ikilisidir; erişim bayrakları kimliğe dahil değildir.
type RosterEntry struct {
	EntityType  models.RecipientEntityType
	EntityID    uint
	WriteAccess bool
	ViewOnly    bool
}

// Identity satırın kimlik anahtarı.
func (e RosterEntry) Identity() models.RosterIdentity {
	return models.RosterIdentity{EntityType: e.EntityType, EntityID: e.EntityID}
}

// RosterUpdate mevcut satır + yazılacak yeni bayraklar.
type RosterUpdate struct {
	Current     models.CalendarEventRecipient
	WriteAccess bool
	ViewOnly    bool
}

// NoOp bayraklar zaten aynıysa true (idempotent uygulama için).
func (u RosterUpdate) NoOp() bool {
	return u.Current.WriteAccess == u.WriteAccess && u.Current.ViewOnly == u.ViewOnly
}

// RosterDiff istenen roster ile mevcut roster arasındaki fark.
type RosterDiff struct {
	ToCreate []RosterEntry
	ToUpdate []RosterUpdate
	ToDelete []models.CalendarEventRecipient
}

// Empty fark yoksa true.
func (d RosterDiff) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToUpdate) == 0 && len(d.ToDelete) == 0
}

// DiffRoster mevcut roster'ı istenen duruma getirecek farkı hesaplar.
//   - istenen ∖ mevcut -> ToCreate (gönderilen bayraklarla yeni satır)
//   - istenen ∩ mevcut -> ToUpdate (sadece bayraklar; kimliğe dokunulmaz)
//   - mevcut ∖ istenen -> ToDelete (soft delete)
//
// Aynı istenen roster tekrar uygulandığında sıfır create/delete ve sadece
// no-op update üretir. İstenen listede tekrar eden kimliklerde son satır geçerlidir.
func DiffRoster(current []models.CalendarEventRecipient, desired []RosterEntry) RosterDiff {
	desiredByID := make(map[models.RosterIdentity]RosterEntry, len(desired))
	order := make([]models.RosterIdentity, 0, len(desired))
	for _, e := range desired {
		if _, seen := desiredByID[e.Identity()]; !seen {
			order = append(order, e.Identity())
		}
		desiredByID[e.Identity()] = e
	}

	currentByID := make(map[models.RosterIdentity]models.CalendarEventRecipient, len(current))
	for _, c := range current {
		currentByID[c.Identity()] = c
	}

	var diff RosterDiff
	for _, id := range order {
		entry := desiredByID[id]
		if existing, ok := currentByID[id]; ok {
			diff.ToUpdate = append(diff.ToUpdate, RosterUpdate{Current: existing, WriteAccess: entry.WriteAccess, ViewOnly: entry.ViewOnly})
		} else {
			diff.ToCreate = append(diff.ToCreate, entry)
		}
	}
	for _, c := range current {
		if _, ok := desiredByID[c.Identity()]; !ok {
			diff.ToDelete = append(diff.ToDelete, c)
		}
	}
	return diff
}

// ParseRosterString form katmanından gelen "TYPE-ID-write-view|..." dizisini
// tipli satırlara çevirir. Çekirdek algoritma (DiffRoster) her zaman tipli
// satırlarla çalışır; string ayrıştırma sınır katmanına aittir.
func ParseRosterString(s string) ([]RosterEntry, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, "|")
	entries := make([]RosterEntry, 0, len(parts))
	for _, part := range parts {
		fields := strings.Split(part, "-")
		if len(fields) != 4 {
			return nil, fmt.Errorf("geçersiz roster satırı: %q", part)
		}
		entityType := models.RecipientEntityType(fields[0])
		if entityType != models.EntityTypeUser && entityType != models.EntityTypeDepartment {
			return nil, fmt.Errorf("roster satırında geçersiz varlık türü: %q", fields[0])
		}
		id, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("roster satırında geçersiz ID: %q", fields[1])
		}
		entries = append(entries, RosterEntry{
			EntityType:  entityType,
			EntityID:    uint(id),
			WriteAccess: fields[2] == "true",
			ViewOnly:    fields[3] == "true",
		})
	}
	return entries, nil
}
