package bridge

import (
	"github.com/clubhub/club-backend/db"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.vocdoni.io/dvote/log"
)

// Category is a notification category subject to per-member preference
// gating. Security notifications bypass the gate entirely.
type Category int

const (
	CategoryTraining Category = iota
	CategoryRole
	CategoryAnnouncement
	CategorySecurity
)

func (c Category) String() string {
	switch c {
	case CategoryTraining:
		return "training"
	case CategoryRole:
		return "role"
	case CategoryAnnouncement:
		return "announcement"
	case CategorySecurity:
		return "security"
	default:
		return "unknown"
	}
}

// allowedChannels resolves the member preferences for a category and returns
// which channels are enabled. A missing preference record means everything
// is enabled; the security category is never gated. Storage errors are
// resolved permissively, gating is best effort and must not block
// security-relevant mail.
func (b *Bridge) allowedChannels(memberID primitive.ObjectID, category Category) (email, sms bool) {
	if category == CategorySecurity {
		return true, true
	}
	prefs, err := b.db.NotificationPreferencesOrDefault(memberID)
	if err != nil {
		log.Warnw("could not load notification preferences",
			"memberID", memberID.Hex(), "error", err)
		return true, true
	}
	switch category {
	case CategoryTraining:
		return prefs.TrainingEmail, prefs.TrainingSMS
	case CategoryRole:
		return prefs.RoleEmail, prefs.RoleSMS
	case CategoryAnnouncement:
		return prefs.AnnouncementEmail, prefs.AnnouncementSMS
	default:
		return true, true
	}
}

// AllowedChannels is the preference gate used outside the bridge (for
// announcement broadcasts from the API).
func AllowedChannels(storage *db.MongoStorage, memberID primitive.ObjectID, category Category) (email, sms bool) {
	b := &Bridge{db: storage}
	return b.allowedChannels(memberID, category)
}
