package model

// Transaction is a confirmed transaction as returned with json encoding.
// Message is nil when the node could not return a decodable message.
type Transaction struct {
	Signature string
	Slot      uint64
	Message   *Message
}

// Message is the account list and instructions of a transaction.
type Message struct {
	AccountKeys  []string
	Instructions []Instruction
}

// Instruction references accounts by index into Message.AccountKeys.
type Instruction struct {
	ProgramIDIndex int
	Accounts       []int
	Data           string
}

// ProgramID returns the instruction's program id, or "" if the index is out of range.
func (m *Message) ProgramID(ix Instruction) string {
	return m.account(ix.ProgramIDIndex)
}

// InstructionAccounts resolves an instruction's account indexes to keys.
func (m *Message) InstructionAccounts(ix Instruction) []string {
	out := make([]string, 0, len(ix.Accounts))
	for _, i := range ix.Accounts {
		if key := m.account(i); key != "" {
			out = append(out, key)
		}
	}
	return out
}

func (m *Message) account(i int) string {
	if m == nil || i < 0 || i >= len(m.AccountKeys) {
		return ""
	}
	return m.AccountKeys[i]
}
