package model

// All lists every table the service owns, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Artwork{},
		&ArtworkPicture{},
		&ArtworkLike{},
		&Purchase{},
		&Display{},
		&DisplayContent{},
	}
}
