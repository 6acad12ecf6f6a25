package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text is also the fallback when a key is missing
// from the active language.
const (
	KeyWelcome          = "welcome"
	KeySignedIn         = "signed_in"
	KeySignedOut        = "signed_out"
	KeyNotSignedIn      = "not_signed_in"
	KeyPasswordChanged  = "password_changed"
	KeyUsernameChanged  = "username_changed"
	KeyAccountDeleted   = "account_deleted"
	KeyRated            = "rated"
	KeyBioUpdated       = "bio_updated"
	KeyActivities       = "activities"
	KeyNoActivities     = "no_activities"
	KeyMarkers          = "markers"
	KeyActivityCreated  = "activity_created"
	KeyActivityUpdated  = "activity_updated"
	KeyActivityCanceled = "activity_canceled"
	KeyJoined           = "joined"
	KeyLeft             = "left"
	KeyParticipants     = "participants"
	KeyInbox            = "inbox"
	KeyInboxEmpty       = "inbox_empty"
	KeyMessageSent      = "message_sent"
	KeyLanguageChanged  = "language_changed"
	KeyLocationDenied   = "location_denied"
	KeyMissingTitle     = "missing_title"
	KeyMissingDesc      = "missing_description"
	KeyMissingDate      = "missing_date"
	KeyMissingCategory  = "missing_category"
	KeyInvalidCap       = "invalid_cap"
	KeyMissingLocation  = "missing_location"
	KeyUploadFailed     = "upload_failed"
)

var messages = map[language.Tag]map[string]string{
	language.English: {
		KeyWelcome:          "Welcome to CityConnect",
		KeySignedIn:         "Signed in as %s",
		KeySignedOut:        "Signed out",
		KeyNotSignedIn:      "You are not signed in",
		KeyPasswordChanged:  "Password changed",
		KeyUsernameChanged:  "Username changed to %s",
		KeyAccountDeleted:   "Account deleted",
		KeyRated:            "New average rating: %.1f",
		KeyBioUpdated:       "Bio updated",
		KeyActivities:       "Activities",
		KeyNoActivities:     "No activities found",
		KeyMarkers:          "%d activities on the map",
		KeyActivityCreated:  "Activity created",
		KeyActivityUpdated:  "Activity updated",
		KeyActivityCanceled: "Activity canceled",
		KeyJoined:           "You joined the activity",
		KeyLeft:             "You left the activity",
		KeyParticipants:     "Participants",
		KeyInbox:            "Messages",
		KeyInboxEmpty:       "No conversations yet",
		KeyMessageSent:      "Message sent",
		KeyLanguageChanged:  "Language set to English",
		KeyLocationDenied:   "Location permission is required to show activities around you",
		KeyMissingTitle:     "Please enter a title",
		KeyMissingDesc:      "Please enter a description",
		KeyMissingDate:      "Please choose a date",
		KeyMissingCategory:  "Please choose a category",
		KeyInvalidCap:       "Participants must be between 1 and 100",
		KeyMissingLocation:  "Tap the map to place the activity",
		KeyUploadFailed:     "The photo could not be uploaded",
	},
	language.French: {
		KeyWelcome:          "Bienvenue sur CityConnect",
		KeySignedIn:         "Connecté en tant que %s",
		KeySignedOut:        "Déconnecté",
		KeyNotSignedIn:      "Vous n'êtes pas connecté",
		KeyPasswordChanged:  "Mot de passe modifié",
		KeyUsernameChanged:  "Nom d'utilisateur changé en %s",
		KeyAccountDeleted:   "Compte supprimé",
		KeyRated:            "Nouvelle note moyenne : %.1f",
		KeyBioUpdated:       "Bio mise à jour",
		KeyActivities:       "Activités",
		KeyNoActivities:     "Aucune activité trouvée",
		KeyMarkers:          "%d activités sur la carte",
		KeyActivityCreated:  "Activité créée",
		KeyActivityUpdated:  "Activité modifiée",
		KeyActivityCanceled: "Activité annulée",
		KeyJoined:           "Vous avez rejoint l'activité",
		KeyLeft:             "Vous avez quitté l'activité",
		KeyParticipants:     "Participants",
		KeyInbox:            "Messages",
		KeyInboxEmpty:       "Aucune conversation pour le moment",
		KeyMessageSent:      "Message envoyé",
		KeyLanguageChanged:  "Langue réglée sur le français",
		KeyLocationDenied:   "L'accès à la localisation est nécessaire pour afficher les activités autour de vous",
		KeyMissingTitle:     "Veuillez saisir un titre",
		KeyMissingDesc:      "Veuillez saisir une description",
		KeyMissingDate:      "Veuillez choisir une date",
		KeyMissingCategory:  "Veuillez choisir une catégorie",
		KeyInvalidCap:       "Le nombre de participants doit être compris entre 1 et 100",
		KeyMissingLocation:  "Touchez la carte pour placer l'activité",
		KeyUploadFailed:     "La photo n'a pas pu être envoyée",
	},
}

func newCatalog() (catalog.Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range messages {
		for key, text := range entries {
			if err := b.SetString(tag, key, text); err != nil {
				return nil, err
			}
		}
	}
	return b, nil
}
