// Package mongostore implements the repository contracts on the Mongo
// document store.
//
// Documents are keyed by hex string ids and reference each other by id
// only. All mutations go through delta translation into $addToSet/$pull/
// $set update operators — never full-document overwrites — so concurrent
// non-conflicting edits commute at the store.
package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"clanhub.gg/clanhub/internal/repository"
)

// newID generates a fresh document id.
func newID() string {
	return primitive.NewObjectID().Hex()
}

// idFilter matches a document by id.
func idFilter(id string) bson.M {
	return bson.M{"_id": id}
}

// updateDoc translates deltas into a Mongo update document. Deltas on the
// same operator are merged; conflicting operators on the same field are a
// programming error and surface as a Mongo error.
func updateDoc(deltas []repository.Delta) (bson.M, error) {
	addToSet := bson.M{}
	pull := bson.M{}
	set := bson.M{}

	for _, d := range deltas {
		switch d.Op {
		case repository.OpAddToSet:
			addToSet[d.Field] = bson.M{"$each": d.Values}
		case repository.OpRemoveMatching:
			if d.Key != "" {
				pull[d.Field] = bson.M{d.Key: bson.M{"$in": d.Values}}
			} else {
				pull[d.Field] = bson.M{"$in": d.Values}
			}
		case repository.OpReplaceScalar:
			set[d.Field] = d.Value
		default:
			return nil, fmt.Errorf("unknown delta op %q", d.Op)
		}
	}

	update := bson.M{}
	if len(addToSet) > 0 {
		update["$addToSet"] = addToSet
	}
	if len(pull) > 0 {
		update["$pull"] = pull
	}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(update) == 0 {
		return nil, fmt.Errorf("empty delta set")
	}
	return update, nil
}

// containsIn builds an $in of case-insensitive contains-regexes.
func containsIn(values []string) bson.M {
	regexes := make([]primitive.Regex, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		regexes = append(regexes, primitive.Regex{Pattern: v, Options: "i"})
	}
	return bson.M{"$in": regexes}
}

// stringIn builds a plain $in over string values.
func stringIn(values []string) bson.M {
	return bson.M{"$in": values}
}
