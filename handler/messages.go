package handler

import (
	"errors"
	"fmt"
	"strings"

	"CulturalDayBot/model"
	"CulturalDayBot/wizard"
)

const helpText = `Commandes :
/start - Présentation de l'événement
/register - Commencer ou reprendre votre inscription
/status - Voir l'état de votre inscription
/next - Étape suivante
/back - Étape précédente
/submit - Envoyer votre inscription
/retry - Réessayer un envoi échoué
/skip - Passer un champ optionnel
/activities - Découvrir les activités
/help - Afficher cette aide`

var fieldLabels = map[model.Field]string{
	model.FieldName:            "Nom",
	model.FieldEmail:           "Email",
	model.FieldPhone:           "Téléphone",
	model.FieldCountry:         "Pays",
	model.FieldWillAttend:      "Présence",
	model.FieldWillParticipate: "Participation",
	model.FieldAdditionalInfo:  "Informations supplémentaires",
}

var fieldPrompts = map[model.Field]string{
	model.FieldName:           "Quel est votre nom complet ?",
	model.FieldEmail:          "Quelle est votre adresse email ?",
	model.FieldPhone:          "Quel est votre numéro de téléphone ? (optionnel, /skip pour passer)",
	model.FieldCountry:        "Quel est votre pays d'origine ? (optionnel, /skip pour passer)",
	model.FieldAdditionalInfo: "Avez-vous des informations supplémentaires à nous communiquer ? (optionnel, /skip pour passer)",
}

// identityFields is the order in which step 1 asks for its fields.
var identityFields = []model.Field{model.FieldName, model.FieldEmail, model.FieldPhone, model.FieldCountry}

func optionalField(f model.Field) bool {
	return f == model.FieldPhone || f == model.FieldCountry || f == model.FieldAdditionalInfo
}

func welcomeText(username string, event model.EventInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bonjour %s ! Bienvenue à la %s.\n\n", username, event.Name)
	if event.Description != "" {
		sb.WriteString(event.Description)
		sb.WriteString("\n\n")
	}
	if event.Date != "" {
		fmt.Fprintf(&sb, "Date : %s\n", event.Date)
	}
	if event.Hours != "" {
		fmt.Fprintf(&sb, "Horaires : %s\n", event.Hours)
	}
	if event.Venue != "" {
		fmt.Fprintf(&sb, "Lieu : %s\n", event.Venue)
	}
	sb.WriteString("\nJe souhaite participer : /register\nDécouvrir les activités : /activities\nAide : /help")
	return sb.String()
}

func activitiesText(event model.EventInfo) string {
	var sb strings.Builder
	sb.WriteString("Activités proposées :\n")
	for _, a := range model.Activities {
		info, _ := event.Activity(a)
		fmt.Fprintf(&sb, "\n• %s", event.ActivityTitle(a))
		if info.Description != "" {
			fmt.Fprintf(&sb, "\n  %s", info.Description)
		}
	}
	return sb.String()
}

func stepHeader(step wizard.Step, form model.RegistrationForm) string {
	titles := map[wizard.Step]string{
		wizard.StepIdentity:   "Vos informations",
		wizard.StepAttendance: "Votre participation",
		wizard.StepActivities: "Participation aux activités",
	}
	return fmt.Sprintf("Étape %d sur %d : %s", int(step), wizard.TotalSteps(form), titles[step])
}

func choiceText(c model.Choice) string {
	switch c {
	case model.ChoiceYes:
		return "Oui"
	case model.ChoiceNo:
		return "Non"
	}
	return "non renseigné"
}

func valueOrDash(s string) string {
	if model.IsBlank(s) {
		return "-"
	}
	return s
}

func identityCard(form model.RegistrationForm) string {
	var sb strings.Builder
	for _, f := range identityFields {
		fmt.Fprintf(&sb, "\n%s : %s", fieldLabels[f], valueOrDash(form.Text(f)))
	}
	return sb.String()
}

func attendanceCard(form model.RegistrationForm) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\nSerez-vous présent à l'événement ? %s", choiceText(form.WillAttend))
	if form.WillAttend == model.ChoiceYes {
		fmt.Fprintf(&sb, "\nSouhaitez-vous participer à une ou plusieurs activités ? %s", choiceText(form.WillParticipate))
	}
	fmt.Fprintf(&sb, "\n%s : %s", fieldLabels[model.FieldAdditionalInfo], valueOrDash(form.AdditionalInfo))
	return sb.String()
}

func activitiesCard(form model.RegistrationForm, event model.EventInfo) string {
	if len(form.SelectedActivities) == 0 {
		return "\nSélectionnez les activités auxquelles vous souhaitez participer."
	}
	titles := make([]string, 0, len(form.SelectedActivities))
	for _, a := range form.SelectedActivities {
		titles = append(titles, event.ActivityTitle(a))
	}
	return fmt.Sprintf("\n%d activité(s) sélectionnée(s) : %s", len(titles), strings.Join(titles, ", "))
}

func statusText(step wizard.Step, form model.RegistrationForm, event model.EventInfo, submitting bool) string {
	var sb strings.Builder
	sb.WriteString(stepHeader(step, form))
	sb.WriteString("\n")
	sb.WriteString(identityCard(form))
	sb.WriteString(attendanceCard(form))
	if len(form.SelectedActivities) > 0 {
		sb.WriteString(activitiesCard(form, event))
	}
	if submitting {
		sb.WriteString("\n\nEnvoi en cours...")
	}
	return sb.String()
}

func validationText(err *model.ValidationError) string {
	switch {
	case err.Has(model.FieldName) || err.Has(model.FieldEmail):
		return "Informations requises\nVeuillez remplir votre nom et votre email pour continuer."
	case err.Has(model.FieldWillAttend):
		return "Confirmation requise\nVeuillez indiquer si vous serez présent à l'événement."
	case err.Has(model.FieldWillParticipate):
		return "Confirmation requise\nVeuillez indiquer si vous souhaitez participer aux activités."
	}
	return "Informations requises\nVeuillez compléter le formulaire."
}

// failureText describes a submission failure for the attendee.
func failureText(err error) string {
	var (
		verr *model.ValidationError
		nerr *model.NetworkError
		serr *model.ServerError
		aerr *model.ApplicationError
	)
	switch {
	case errors.As(err, &verr):
		return "Veuillez remplir tous les champs obligatoires."
	case errors.As(err, &serr):
		return fmt.Sprintf("Erreur serveur (%d).", serr.StatusCode)
	case errors.As(err, &aerr):
		if aerr.Message != "" {
			return aerr.Message
		}
		return "Erreur lors du traitement de votre inscription."
	case errors.As(err, &nerr):
		return "Impossible de joindre le service d'inscription."
	}
	return "Une erreur est survenue lors de l'envoi du formulaire."
}
