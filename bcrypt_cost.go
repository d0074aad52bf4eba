//go:build !race

package tourdesk

func passwordHashCost() int {
	return 14
}
