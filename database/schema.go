package database

import "database/sql"

// CreateSchema crée les tables du service si elles n'existent pas
func CreateSchema() error {
	return CreateSchemaOn(DB)
}

// CreateSchemaOn crée les tables sur une connexion donnée
func CreateSchemaOn(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS garages (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			rue VARCHAR(255) NOT NULL,
			ville VARCHAR(255) NOT NULL,
			code_postal VARCHAR(20) NOT NULL,
			pays VARCHAR(100) NOT NULL,
			telephone VARCHAR(20) NOT NULL,
			email VARCHAR(255) NOT NULL,
			horaires JSONB NOT NULL DEFAULT '{}'::jsonb,
			version BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vehicules (
			id UUID PRIMARY KEY,
			garage_id UUID NOT NULL REFERENCES garages(id) ON DELETE CASCADE,
			modele_id UUID NOT NULL,
			brand VARCHAR(100) NOT NULL,
			annee_fabrication INT NOT NULL,
			type_carburant VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accessoires (
			id UUID PRIMARY KEY,
			vehicule_id UUID NOT NULL REFERENCES vehicules(id) ON DELETE CASCADE,
			nom VARCHAR(255) NOT NULL,
			description TEXT,
			prix NUMERIC(8,2) NOT NULL,
			type VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_garages_ville ON garages(ville)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicules_garage ON vehicules(garage_id)`,
		`CREATE INDEX IF NOT EXISTS idx_vehicules_carburant ON vehicules(type_carburant)`,
		`CREATE INDEX IF NOT EXISTS idx_accessoires_vehicule ON accessoires(vehicule_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
