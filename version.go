package archivedon

// Program identity, surfaced through the nodeinfo document.
const (
	ProgName       = "archivedon"
	ProgVersion    = "0.1.0"
	ProgRepository = "https://github.com/mizunashi-mana/archivedon"
)
