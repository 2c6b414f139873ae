package audit

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gvault/internal/vault"
)

// Finding is one detected weakness instance, tied to the record that
// triggered it.
type Finding struct {
	ID          string
	Title       string
	Description string

	Seq     uint64
	Op      vault.Op
	Account common.Address
	Detail  string
}

func (f *Finding) String() string {
	weakness := fmt.Sprintf("ID: %s\nTitle: %s\nDescription: %s\n\n",
		f.ID, f.Title, f.Description)
	weakness = Colour(31, weakness)

	context := fmt.Sprintf("At record %d: op=%s account=%s\n%s\n",
		f.Seq, f.Op, f.Account.Hex(), f.Detail)
	context = Colour(33, context)

	return fmt.Sprintf("%s%s", weakness, context)
}

func Colour(color int, str string) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, str)
}
