// Package all wires every built-in storage backend into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package. Importing this package makes the
// following storage kinds available at runtime:
//
//   - "postgres" (fashionetl/internal/storage/postgres)
//   - "sqlite"   (fashionetl/internal/storage/sqlite)
package all

import (
	_ "fashionetl/internal/storage/postgres"
	_ "fashionetl/internal/storage/sqlite"
)
