package constants

import "time"

const (
	FolderListCachePrefix = "folder_children" // Folder listing by userID and parent (CacheBuilder adds colon)
	FileListCachePrefix   = "file_list"       // File listing by userID and filter hash
	UserListingsIndex     = "user_listings"   // Set of listing keys cached for a user
	ListingCacheExpiry    = 30 * time.Minute

	// A slow cache read falls through to the database.
	ListingCacheReadTimeout = 250 * time.Millisecond
)
