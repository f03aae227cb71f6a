package domain

// Filters are AND-of-conditions over the listed fields; empty slices and
// nil pointers mean "no condition". Repositories translate them into
// store-native queries.

// UserFilter selects users on list reads.
type UserFilter struct {
	// Search matches username by case-insensitive contains.
	Search      []string
	JoinedClans []string // resolved clan document ids
	DiscordIDs  []string
	IDs         []string
	Roles       []string
}

// Empty reports whether no condition is set.
func (f UserFilter) Empty() bool {
	return len(f.Search) == 0 && len(f.JoinedClans) == 0 &&
		len(f.DiscordIDs) == 0 && len(f.IDs) == 0 && len(f.Roles) == 0
}

// ClanFilter selects clans on list reads.
type ClanFilter struct {
	// Names and Tags match by case-insensitive contains.
	Names      []string
	Tags       []string
	IDs        []string
	Owners     []string
	Categories []string
	Approved   *bool
}

// Empty reports whether no condition is set.
func (f ClanFilter) Empty() bool {
	return len(f.Names) == 0 && len(f.Tags) == 0 && len(f.IDs) == 0 &&
		len(f.Owners) == 0 && len(f.Categories) == 0 && f.Approved == nil
}

// ApplicationFilter selects federation or membership applications.
type ApplicationFilter struct {
	IDs         []string
	SubmittedBy []string
	ClanIDs     []string
	// Statuses match by case-insensitive contains.
	Statuses []string
}

// Empty reports whether no condition is set.
func (f ApplicationFilter) Empty() bool {
	return len(f.IDs) == 0 && len(f.SubmittedBy) == 0 &&
		len(f.ClanIDs) == 0 && len(f.Statuses) == 0
}
