package vault

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TransferSink receives withdrawn value on behalf of an account. The vault
// treats it as untrusted code: it may fail, and it may call back into the
// vault before returning.
type TransferSink interface {
	// Send delivers amount for account. A nil return acknowledges receipt;
	// any error tells the vault the transfer did not happen.
	Send(account common.Address, amount *uint256.Int) error
}

// SinkFunc adapts a plain function to the TransferSink interface.
type SinkFunc func(account common.Address, amount *uint256.Int) error

// Send implements TransferSink.
func (f SinkFunc) Send(account common.Address, amount *uint256.Int) error {
	return f(account, amount)
}
