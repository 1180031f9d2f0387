package list_test

import (
	"fmt"

	"github.com/charmbracelet/pagelist/internal/ui/list"
)

// Example shows a list bound to a slice. Slots are bound when first
// rendered and updated through the structural calls.
func Example() {
	cheeses := []string{"Brie", "Cheddar", "Gouda"}

	l := list.New(func(i int) list.Item {
		return list.NewStringItem(cheeses[i])
	})
	l.SetSize(20, 5)
	l.Reset(len(cheeses))
	fmt.Println(l.Render())

	cheeses = append([]string{"Abbaye"}, cheeses...)
	l.InsertAt(0)
	fmt.Println(l.Render())

	// Output:
	// Brie
	// Cheddar
	// Gouda
	// Abbaye
	// Brie
	// Cheddar
	// Gouda
}
