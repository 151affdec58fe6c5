package wizard

import (
	"strings"

	"github.com/diewo77/literie-pos/internal/payment"
	"github.com/diewo77/literie-pos/validation"
)

// Verdict is the outcome of a step check. Reason is shown to the seller when OK is false.
type Verdict struct {
	OK     bool                  `json:"ok"`
	Reason string                `json:"reason,omitempty"`
	Fields validation.Violations `json:"fields,omitempty"`
}

func pass() Verdict { return Verdict{OK: true} }

func fail(reason string) Verdict { return Verdict{Reason: reason} }

// fromViolations turns collected violations into a verdict; the reason is the
// message of the first failing field in order.
func fromViolations(v validation.Violations, order []string) Verdict {
	if v.Empty() {
		return pass()
	}
	for _, f := range order {
		if code, ok := v[f]; ok {
			return Verdict{Reason: fieldMessage(f, code), Fields: v}
		}
	}
	return Verdict{Reason: "Formulaire incomplet", Fields: v}
}

var fieldLabels = map[string]string{
	"event_location":  "Le lieu de l'événement",
	"client.name":     "Le nom du client",
	"client.email":    "L'email du client",
	"client.phone":    "Le téléphone du client",
	"client.address":  "L'adresse du client",
	"client.city":     "La ville",
	"client.postal":   "Le code postal",
	"client.housing":  "Le type de logement",
	"client.doorcode": "Le digicode",
}

func fieldMessage(field, code string) string {
	label := fieldLabels[field]
	if label == "" {
		label = field
	}
	switch code {
	case validation.CodeTooShort:
		return label + " doit contenir plus de 2 caractères"
	case validation.CodeInvalidEmail:
		return label + " doit contenir un @"
	case validation.CodeUnknownValue:
		return label + " est invalide"
	default:
		return label + " est requis"
	}
}

var clientFieldOrder = []string{
	"client.name", "client.email", "client.phone", "client.address",
	"client.city", "client.postal", "client.housing", "client.doorcode",
}

// ValidateInvoiceInfo only gates on the event location; number and date are pre-filled.
func ValidateInvoiceInfo(d Draft) Verdict {
	v := validation.Violations{}
	validation.Required("event_location", d.EventLocation, v)
	return fromViolations(v, []string{"event_location"})
}

// ValidateClient checks the required client fields. The name must be longer than 2 characters.
func ValidateClient(d Draft) Verdict {
	c := d.Client
	v := validation.Violations{}
	validation.MinLength("client.name", c.Name, 2, v)
	validation.Email("client.email", c.Email, v)
	validation.Required("client.phone", c.Phone, v)
	validation.Required("client.address", c.Address, v)
	validation.Required("client.city", c.City, v)
	validation.Required("client.postal", c.PostalCode, v)
	validation.OneOf("client.housing", string(c.HousingType), housingTypes, v)
	if !c.NoDoorCode {
		validation.Required("client.doorcode", c.DoorCode, v)
	}
	return fromViolations(v, clientFieldOrder)
}

// ValidateProducts needs at least one line and a pickup/delivery decision on every line.
func ValidateProducts(d Draft) Verdict {
	if len(d.LineItems) == 0 {
		return fail("Ajoutez au moins un produit")
	}
	var pending []string
	for _, li := range d.LineItems {
		if li.Fulfilment == Undecided {
			name := strings.TrimSpace(li.Designation)
			if name == "" {
				name = li.ID
			}
			pending = append(pending, name)
		}
	}
	if len(pending) > 0 {
		return fail("Indiquez retrait ou livraison pour : " + strings.Join(pending, ", "))
	}
	return pass()
}

// ValidatePayment needs a method, and a deposit method whenever a deposit is set.
func ValidatePayment(d Draft) Verdict {
	p := d.Payment
	if !p.Method.Valid() {
		return fail("Choisissez un mode de paiement")
	}
	if p.DepositAmount > 0 {
		if p.DepositMethod == payment.MethodNone {
			return fail("Choisissez le mode de paiement de l'acompte")
		}
		if !p.DepositMethod.AllowedForDeposit() {
			return fail("Mode de paiement de l'acompte non accepté : " + p.DepositMethod.Label())
		}
	}
	return pass()
}

// ValidateFinish gates the terminal action: signed and terms accepted.
func ValidateFinish(d Draft) Verdict {
	if !d.Signature.Signed() {
		return fail("La signature du client est requise")
	}
	if !d.TermsAccepted {
		return fail("Les conditions générales doivent être acceptées")
	}
	return pass()
}

// ValidateStep runs the check that gates leaving step. Delivery, signature and
// recap are informational; leaving recap is the terminal action and needs ValidateFinish.
func ValidateStep(step Step, d Draft) Verdict {
	switch step {
	case StepInvoiceInfo:
		return ValidateInvoiceInfo(d)
	case StepClient:
		return ValidateClient(d)
	case StepProducts:
		return ValidateProducts(d)
	case StepPayment:
		return ValidatePayment(d)
	case StepRecap:
		return ValidateFinish(d)
	default:
		return pass()
	}
}

// Validate checks the current step.
func (s *Store) Validate() Verdict { return ValidateStep(s.draft.Step, s.draft) }

// CanFinish reports whether the wizard may be completed.
func (s *Store) CanFinish() Verdict { return ValidateFinish(s.draft) }

// Advance moves forward one step if the current step validates, marking it done.
// On failure nothing changes and the verdict carries the reason.
func (s *Store) Advance() Verdict {
	if s.draft.Step == LastStep {
		return pass()
	}
	verdict := s.Validate()
	if !verdict.OK {
		return verdict
	}
	s.MarkStepDone(s.draft.Step)
	s.GoNext()
	return verdict
}

// Retreat moves back one step. Always allowed.
func (s *Store) Retreat() { s.GoPrev() }

// ValidateAll checks every gated step in order, the finish gate included,
// and returns the first failure along with the step it belongs to.
func ValidateAll(d Draft) (Step, Verdict) {
	for _, step := range Steps {
		if step == LastStep {
			break
		}
		if v := ValidateStep(step, d); !v.OK {
			return step, v
		}
	}
	return LastStep, pass()
}
