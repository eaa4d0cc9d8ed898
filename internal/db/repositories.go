package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels     *ChannelRepository
	Media        *MediaRepository
	ChannelItems *ChannelItemRepository
	Blocks       *BlockRepository
	Settings     *SettingsRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels:     NewChannelRepository(db),
		Media:        NewMediaRepository(db),
		ChannelItems: NewChannelItemRepository(db),
		Blocks:       NewBlockRepository(db),
		Settings:     NewSettingsRepository(db),
	}
}
