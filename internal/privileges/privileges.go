package privileges

import "strings"

// Privileges is the account privilege bitset stored in users.priv.
type Privileges int64

const (
	Normal      Privileges = 1 << 0
	Verified    Privileges = 1 << 1
	Whitelisted Privileges = 1 << 2

	Supporter Privileges = 1 << 4
	Premium   Privileges = 1 << 5

	Alumni            Privileges = 1 << 7
	TournamentManager Privileges = 1 << 10
	Nominator         Privileges = 1 << 11
	Mod               Privileges = 1 << 12
	Admin             Privileges = 1 << 13
	Dangerous         Privileges = 1 << 14

	// Donator covers both paid tiers; a lapsed grant clears both.
	Donator = Supporter | Premium
	Staff   = Mod | Admin | Dangerous
)

// defaults applied to channels whose stored privilege columns are NULL
const (
	DefaultChannelRead  = Normal
	DefaultChannelWrite = Verified
)

var names = []struct {
	bit  Privileges
	name string
}{
	{Normal, "Normal"},
	{Verified, "Verified"},
	{Whitelisted, "Whitelisted"},
	{Supporter, "Supporter"},
	{Premium, "Premium"},
	{Alumni, "Alumni"},
	{TournamentManager, "TournamentManager"},
	{Nominator, "Nominator"},
	{Mod, "Mod"},
	{Admin, "Admin"},
	{Dangerous, "Dangerous"},
}

// Has reports whether every bit of want is set.
func (p Privileges) Has(want Privileges) bool { return p&want == want }

// Any reports whether at least one bit of want is set.
func (p Privileges) Any(want Privileges) bool { return p&want != 0 }

func (p Privileges) Remove(bits Privileges) Privileges { return p &^ bits }

func (p Privileges) String() string {
	if p == 0 {
		return "None"
	}
	var parts []string
	for _, n := range names {
		if p&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "Unknown"
	}
	return strings.Join(parts, "|")
}

// FromNullable decodes a raw stored value, falling back to def when the
// column was NULL.
func FromNullable(v int64, valid bool, def Privileges) Privileges {
	if !valid {
		return def
	}
	return Privileges(v)
}
