package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pluscode-backend/internal/catalog"
	"pluscode-backend/internal/config"
	"pluscode-backend/internal/content"
	"pluscode-backend/internal/db"
)

// seed copies the bundled catalog into MongoDB. Existing documents keep their id
// and have their fields refreshed, so the command can be rerun after catalog edits.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		log.Fatal(err)
	}

	cat := catalog.Default()

	for _, cs := range cat.CaseStudies() {
		doc := content.CaseStudyDocumentFromCatalog(cs, primitive.NewObjectID().Hex())
		if err := upsertBySlug(ctx, cols.CaseStudies, cs.Slug, doc); err != nil {
			log.Fatalf("seed case study %s: %v", cs.Slug, err)
		}
		log.Printf("seed case study: %s", cs.Slug)
	}

	for _, in := range cat.Insights() {
		doc := content.InsightDocumentFromCatalog(in, primitive.NewObjectID().Hex())
		if err := upsertBySlug(ctx, cols.Insights, in.Slug, doc); err != nil {
			log.Fatalf("seed insight %s: %v", in.Slug, err)
		}
		log.Printf("seed insight: %s", in.Slug)
	}

	log.Println("seed completed")
}

func upsertBySlug(ctx context.Context, col *mongo.Collection, slug string, doc interface{}) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return err
	}
	id := fields["_id"]
	delete(fields, "_id")

	update := bson.M{
		"$set":         fields,
		"$setOnInsert": bson.M{"_id": id},
	}
	_, err = col.UpdateOne(ctx, bson.M{"slug": slug}, update, options.Update().SetUpsert(true))
	return err
}
