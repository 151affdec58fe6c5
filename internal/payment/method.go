package payment

import "strings"

// Method is one of the closed set of payment kinds accepted at the till.
// The zero value means no method has been chosen yet.
type Method string

const (
	MethodNone          Method = ""
	MethodCard          Method = "carte"
	MethodCash          Method = "especes"
	MethodTransfer      Method = "virement"
	MethodCheque        Method = "cheque"
	MethodFutureCheques Method = "cheques_a_venir"
	MethodAlma          Method = "alma"
	MethodFinancing     Method = "financement"
)

// Methods lists every selectable method in display order.
var Methods = []Method{
	MethodCard, MethodCash, MethodTransfer, MethodCheque,
	MethodFutureCheques, MethodAlma, MethodFinancing,
}

var labels = map[Method]string{
	MethodCard:          "Carte bancaire",
	MethodCash:          "Espèces",
	MethodTransfer:      "Virement",
	MethodCheque:        "Chèque",
	MethodFutureCheques: "Chèque à venir",
	MethodAlma:          "Alma",
	MethodFinancing:     "Financement",
}

// Label returns the French label printed on invoices.
func (m Method) Label() string { return labels[m] }

// Valid reports whether m belongs to the closed set (MethodNone is not valid).
func (m Method) Valid() bool {
	_, ok := labels[m]
	return ok
}

// AllowedForDeposit reports whether m can settle an acompte.
func (m Method) AllowedForDeposit() bool {
	switch m {
	case MethodCard, MethodCash, MethodTransfer, MethodCheque:
		return true
	}
	return false
}

// ParseMethod accepts a code or a label, case-insensitively. Unknown input yields MethodNone.
func ParseMethod(s string) Method {
	s = strings.TrimSpace(s)
	if s == "" {
		return MethodNone
	}
	if m := Method(strings.ToLower(s)); m.Valid() {
		return m
	}
	for _, m := range Methods {
		if strings.EqualFold(m.Label(), s) {
			return m
		}
	}
	return MethodNone
}

// MethodFromDescription recovers the method from a human readable description
// such as "Chèque à venir (9 chèques de 163€ + acompte 100.00€)".
func MethodFromDescription(desc string) Method {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return MethodNone
	}
	head := desc
	if i := strings.Index(desc, "("); i >= 0 {
		head = desc[:i]
	}
	if m := ParseMethod(head); m != MethodNone {
		return m
	}
	// Longest label first so "Chèque à venir" wins over "Chèque".
	best := MethodNone
	for _, m := range Methods {
		if strings.HasPrefix(strings.ToLower(desc), strings.ToLower(m.Label())) && len(m.Label()) > len(best.Label()) {
			best = m
		}
	}
	return best
}
