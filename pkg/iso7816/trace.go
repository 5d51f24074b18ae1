package iso7816

// TRANSACTION:
// A Transaction represents the atomic unit of communication defined in ISO 7816-3:
// one Command APDU (C-APDU) sent by the terminal, followed by one Response APDU (R-APDU)
// sent back by the card.
//
// TRACE:
// A Trace is a chronological sequence of Transactions. It captures the full history of a
// logical operation. A single logical intent (e.g., "Select File") may result in multiple
// physical transactions due to protocol mechanisms:
// 1. Command chaining: the data is split over several commands.
// 2. "6C XX" (Wrong Length): the command is sent again with Le = XX.
// 3. "61 XX" (Process Completed): the terminal sends GET RESPONSE.
//
// In these cases, the Trace contains the entire conversation, and IsSuccess() evaluates
// the final outcome.

// Transaction records one physical exchange.
// Command.Data borrows the caller's command data; it is only meaningful while that
// storage is left untouched.
type Transaction struct {
	Command    Command
	Ne         int
	Status     StatusWord
	DataLength int
}

// IsSuccess checks if the transaction ended with status 9000.
func (t *Transaction) IsSuccess() bool {
	return t.Status.IsSuccess()
}

// Trace is a sequence of transactions (Command-Response pairs).
type Trace []Transaction

// Last returns the final transaction of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Transaction {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// IsSuccess checks if the FINAL transaction in the trace was successful.
// Intermediate 61XX or 6CXX steps do not count.
func (t Trace) IsSuccess() bool {
	last := t.Last()
	if last == nil {
		return false
	}
	return last.IsSuccess()
}

// Since returns the transactions recorded after the first n.
func (t Trace) Since(n int) Trace {
	if n >= len(t) {
		return nil
	}
	return t[n:]
}

func (t *Trace) record(tx Transaction) {
	*t = append(*t, tx)
}
