package handler

import (
	"strings"

	"CulturalDayBot/model"
	"CulturalDayBot/wizard"

	"github.com/go-telegram/bot/models"
)

// Callback data prefixes.
const (
	cbAttend      = "attend"
	cbParticipate = "participate"
	cbActivity    = "activity"
	cbEdit        = "edit"
	cbNav         = "nav"

	navNext   = "next"
	navBack   = "back"
	navSubmit = "submit"
	navRetry  = "retry"
)

func callbackData(kind, value string) string {
	return kind + ":" + value
}

func parseCallbackData(data string) (kind, value string, ok bool) {
	return strings.Cut(data, ":")
}

func button(text, kind, value string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: callbackData(kind, value)}
}

func checked(label string, on bool) string {
	if on {
		return "✓ " + label
	}
	return label
}

func navRow(step wizard.Step, form model.RegistrationForm, submitting bool) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton
	if step > wizard.StepIdentity {
		row = append(row, button("◀ Retour", cbNav, navBack))
	}
	switch {
	case wizard.ForwardAction(step, form) == wizard.ActionNext:
		row = append(row, button("Suivant ▶", cbNav, navNext))
	case submitting:
		row = append(row, button("Envoi en cours...", cbNav, navSubmit))
	default:
		row = append(row, button("Soumettre", cbNav, navSubmit))
	}
	return row
}

func stepKeyboard(step wizard.Step, form model.RegistrationForm, event model.EventInfo, submitting bool) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton
	switch step {
	case wizard.StepIdentity:
		rows = append(rows,
			[]models.InlineKeyboardButton{
				button("Modifier le nom", cbEdit, string(model.FieldName)),
				button("Modifier l'email", cbEdit, string(model.FieldEmail)),
			},
			[]models.InlineKeyboardButton{
				button("Modifier le téléphone", cbEdit, string(model.FieldPhone)),
				button("Modifier le pays", cbEdit, string(model.FieldCountry)),
			},
		)
	case wizard.StepAttendance:
		rows = append(rows, []models.InlineKeyboardButton{
			button(checked("Présent : Oui", form.WillAttend == model.ChoiceYes), cbAttend, string(model.ChoiceYes)),
			button(checked("Présent : Non", form.WillAttend == model.ChoiceNo), cbAttend, string(model.ChoiceNo)),
		})
		if form.WillAttend == model.ChoiceYes {
			rows = append(rows, []models.InlineKeyboardButton{
				button(checked("Participer : Oui", form.WillParticipate == model.ChoiceYes), cbParticipate, string(model.ChoiceYes)),
				button(checked("Participer : Non", form.WillParticipate == model.ChoiceNo), cbParticipate, string(model.ChoiceNo)),
			})
		}
		rows = append(rows, []models.InlineKeyboardButton{
			button("Ajouter une note", cbEdit, string(model.FieldAdditionalInfo)),
		})
	case wizard.StepActivities:
		var row []models.InlineKeyboardButton
		for _, a := range model.Activities {
			row = append(row, button(checked(event.ActivityTitle(a), form.Has(a)), cbActivity, a.Tag()))
			if len(row) == 2 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	rows = append(rows, navRow(step, form, submitting))
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func retryKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("Réessayer", cbNav, navRetry)},
		},
	}
}
