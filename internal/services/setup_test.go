package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/internal/db"
	"github.com/diewo77/literie-pos/internal/payment"
	"github.com/diewo77/literie-pos/internal/wizard"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

var testDay = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// filledStore is a ready to finish draft: 1200 + 2 x 288 = 1776 TTC.
func filledStore(email string) *wizard.Store {
	st := wizard.NewStore()
	st.UpdateInfo(wizard.InfoPatch{EventLocation: wizard.Ptr("Foire de Lyon")})
	st.UpdateClient(wizard.ClientPatch{
		Name:        wizard.Ptr("Alice Martin"),
		Email:       wizard.Ptr(email),
		Phone:       wizard.Ptr("0601020304"),
		Address:     wizard.Ptr("12 rue des Lilas"),
		City:        wizard.Ptr("Lyon"),
		PostalCode:  wizard.Ptr("69003"),
		HousingType: wizard.Ptr(wizard.HousingHouse),
		NoDoorCode:  wizard.Ptr(true),
	})
	st.AddLineItem(wizard.LineItem{ProductCode: "MAT-160", Designation: "Matelas 160x200", Quantity: 1, UnitPriceTTC: 1200, Fulfilment: wizard.Pickup})
	st.AddLineItem(wizard.LineItem{ProductCode: "SOM-80", Designation: "Sommier 80x200", Quantity: 2, UnitPriceTTC: 288, Fulfilment: wizard.Delivery})
	st.UpdatePaiement(wizard.PaymentPatch{Method: wizard.Ptr(payment.MethodCard)})
	st.UpdateSignature(wizard.SignaturePatch{Data: wizard.Ptr("data:image/png;base64,AAAA")})
	st.SetTermsAccepted(true)
	return st
}
