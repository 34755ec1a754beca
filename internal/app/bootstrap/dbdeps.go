// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// bg holds the background workers started in Startup so Shutdown
	// can stop them. Hooks receive DBDeps by value; the pointer is shared.
	bg *background
}
