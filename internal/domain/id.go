package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24 character hex identifier in the document store's
// ObjectID format. Stores that do not generate ObjectIDs themselves use it so
// every backend hands out the same shape of id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a syntactically valid store identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// CanonicalID returns id in the lowercase hex form every store keeps, and
// false when id is not a valid identifier.
func CanonicalID(id string) (string, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", false
	}
	return oid.Hex(), true
}
