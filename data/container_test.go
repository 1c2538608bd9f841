package data

import (
	"sync"
	"testing"

	"github.com/giygas/medicine-shop/catalog"
	"github.com/shopspring/decimal"
)

func medicine(name, category string) catalog.Medicine {
	m := catalog.Medicine{Name: name, Category: category, Price: decimal.NewFromInt(5)}
	m.Prepare()
	return m
}

func TestNewCatalogContainer(t *testing.T) {
	cc := NewCatalogContainer()

	if cc.IsUpdating() {
		t.Error("new container should not be updating")
	}
	if !cc.GetLastUpdated().IsZero() {
		t.Error("new container should have zero lastUpdated time")
	}
	if len(cc.GetMedicines()) != 0 {
		t.Error("new container should have an empty catalog")
	}
	if len(cc.GetCategories()) != 0 {
		t.Error("new container should have no categories")
	}
}

func TestUpdateData(t *testing.T) {
	cc := NewCatalogContainer()

	cc.UpdateData([]catalog.Medicine{
		medicine("Aspirin", "Pain Relief"),
		medicine("Amoxicillin", "Antibiotics"),
		medicine("Paracetamol", "pain relief"),
		medicine("Vitamin C", ""),
	})

	if got := len(cc.GetMedicines()); got != 4 {
		t.Errorf("expected 4 medicines, got %d", got)
	}

	categories := cc.GetCategories()
	if len(categories) != 2 || categories[0] != "Antibiotics" || categories[1] != "Pain Relief" {
		t.Errorf("unexpected categories: %v", categories)
	}

	if cc.GetLastUpdated().IsZero() {
		t.Error("lastUpdated should be set after UpdateData")
	}
}

func TestUpdateDataNil(t *testing.T) {
	cc := NewCatalogContainer()
	cc.UpdateData(nil)

	if cc.GetMedicines() == nil {
		t.Error("GetMedicines should never return nil")
	}
}

func TestBeginEndUpdate(t *testing.T) {
	cc := NewCatalogContainer()

	if !cc.BeginUpdate() {
		t.Fatal("first BeginUpdate should succeed")
	}
	if cc.BeginUpdate() {
		t.Error("second BeginUpdate should fail while updating")
	}
	if !cc.IsUpdating() {
		t.Error("IsUpdating should be true")
	}

	cc.EndUpdate()
	if cc.IsUpdating() {
		t.Error("IsUpdating should be false after EndUpdate")
	}
	if !cc.BeginUpdate() {
		t.Error("BeginUpdate should succeed after EndUpdate")
	}
}

func TestConcurrentReadsDuringUpdate(t *testing.T) {
	cc := NewCatalogContainer()
	cc.UpdateData([]catalog.Medicine{medicine("Aspirin", "Pain Relief")})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if len(cc.GetMedicines()) == 0 {
				t.Error("reader observed an empty catalog")
			}
		}()
		go func() {
			defer wg.Done()
			cc.UpdateData([]catalog.Medicine{medicine("Aspirin", "Pain Relief"), medicine("Ibuprofen", "Pain Relief")})
		}()
	}
	wg.Wait()
}
