package audit

// Weakness classes, numbered after the SWC registry.
// https://swcregistry.io/

type Weakness struct {
	ID          string
	Title       string
	Description string
}

var WeaknessMap = map[string]*Weakness{
	"101": {
		"101",
		"Integer Overflow and Underflow",
		"An arithmetic operation wrapped around the 256-bit word size. A ledger running in wrapping mode applies such operations silently, so a debit can underflow a balance up to a huge value and a credit can fold the total back through zero. Balances stop meaning anything once this happens.",
	},
	"105": {
		"105",
		"Unprotected Withdrawal",
		"An account withdrew more than it ever deposited. Value left the vault without a matching deposit history, which means the withdrawal path let somebody spend balances they do not own.",
	},
	"107": {
		"107",
		"Reentrancy",
		"External code called back into the vault before the first invocation finished. In the reentrancy attack (a.k.a. recursive call attack) a hostile transfer sink replays the withdrawal while the outer call is still in flight, and the two invocations interact through half-applied state. A correctly guarded vault rejects the nested call; seeing the attempt at all means an adversary is probing.",
	},
	"110": {
		"110",
		"Assert Violation",
		"The ledger total no longer equals deposits minus withdrawals. Conservation is the one property every honest run preserves, so a drifting total is proof that some operation was applied twice, skipped, or wrapped.",
	},
}
