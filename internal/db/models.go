package db

type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// Transfer is one send or receive attempt.
type Transfer struct {
	ID        string `gorm:"primaryKey"`
	Direction string `gorm:"index"`
	Peer      string
	Path      string
	Type      string
	Size      uint64
	Mode      string
	Status    string
	Error     string
	CreatedAt int64 `gorm:"index"`
}
