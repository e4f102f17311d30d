package database

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// SeedDatabase peuple les tables avec des données de démonstration
func SeedDatabase(garageCount int) error {
	fmt.Println("🌱 Génération des garages...")

	garageIDs, err := seedGarages(garageCount)
	if err != nil {
		return fmt.Errorf("erreur génération garages: %w", err)
	}

	fmt.Println("🌱 Génération des véhicules et accessoires...")
	err = seedVehiculesAndAccessoires(garageIDs)
	if err != nil {
		return fmt.Errorf("erreur génération véhicules: %w", err)
	}

	fmt.Println("🔍 Analyse des tables...")
	if _, err := DB.Exec("ANALYZE"); err != nil {
		fmt.Println("⚠️ Attention: échec de l'analyse:", err)
	}

	return nil
}

// seedGarages génère les garages
func seedGarages(count int) ([]uuid.UUID, error) {
	fmt.Printf("   🏢 Génération de %d garages...\n", count)

	names := []string{
		"Garage Central", "Auto Services Plus", "Mécanique Express", "Atelier du Rond-Point",
		"Garage de la Gare", "Carrosserie Moderne", "Auto Passion", "Garage des Alpes",
	}
	cities := []string{"Paris", "Lyon", "Marseille", "Toulouse", "Bordeaux", "Nice", "Nantes", "Strasbourg"}

	// Tous les garages ouvrent 08:00-12:00 et 14:00-18:00 en semaine
	horaires := map[string][]map[string]string{
		"monday":    {{"start": "08:00", "end": "12:00"}, {"start": "14:00", "end": "18:00"}},
		"tuesday":   {{"start": "08:00", "end": "12:00"}, {"start": "14:00", "end": "18:00"}},
		"wednesday": {{"start": "08:00", "end": "12:00"}, {"start": "14:00", "end": "18:00"}},
		"thursday":  {{"start": "08:00", "end": "12:00"}, {"start": "14:00", "end": "18:00"}},
		"friday":    {{"start": "08:00", "end": "12:00"}, {"start": "14:00", "end": "18:00"}},
		"saturday":  {{"start": "09:00", "end": "13:00"}},
	}
	horairesJSON, err := json.Marshal(horaires)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, count)
	now := time.Now()

	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}
		city := cities[rand.Intn(len(cities))]

		id := uuid.New()
		_, err := DB.Exec(`
			INSERT INTO garages (id, name, rue, ville, code_postal, pays, telephone, email, horaires, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 0, $10, $10)
		`, id, name,
			fmt.Sprintf("%d rue de la République", 1+rand.Intn(200)),
			city,
			fmt.Sprintf("%05d", 10000+rand.Intn(90000)),
			"France",
			fmt.Sprintf("+3314%07d", rand.Intn(10000000)),
			fmt.Sprintf("contact%d@garage.fr", i+1),
			horairesJSON,
			now,
		)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	fmt.Printf("   ✅ %d garages créés\n", len(ids))
	return ids, nil
}

// seedVehiculesAndAccessoires génère les véhicules et leurs accessoires
func seedVehiculesAndAccessoires(garageIDs []uuid.UUID) error {
	brands := []string{"Renault", "Peugeot", "Citroën", "Dacia", "Toyota", "Volkswagen", "Tesla", "Hyundai"}
	carburants := []string{"essence", "diesel", "electrique", "hybride", "gpl"}
	accessoireNoms := []string{
		"GPS intégré", "Attelage", "Caméra de recul", "Jantes alliage",
		"Sièges chauffants", "Alarme", "Barres de toit", "Régulateur adaptatif",
	}
	accessoireTypes := []string{"interieur", "exterieur", "electronique", "securite", "confort"}

	totalVehicules := 0
	totalAccessoires := 0
	now := time.Now()
	currentYear := now.Year()

	for _, garageID := range garageIDs {
		// 5 à 30 véhicules par garage, sous la capacité maximale
		numVehicules := 5 + rand.Intn(26)

		for i := 0; i < numVehicules; i++ {
			vehiculeID := uuid.New()
			_, err := DB.Exec(`
				INSERT INTO vehicules (id, garage_id, modele_id, brand, annee_fabrication, type_carburant, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
			`, vehiculeID, garageID, uuid.New(),
				brands[rand.Intn(len(brands))],
				2000+rand.Intn(currentYear-1999),
				carburants[rand.Intn(len(carburants))],
				now,
			)
			if err != nil {
				return err
			}
			totalVehicules++

			// 0 à 3 accessoires par véhicule
			numAccessoires := rand.Intn(4)
			for j := 0; j < numAccessoires; j++ {
				_, err := DB.Exec(`
					INSERT INTO accessoires (id, vehicule_id, nom, description, prix, type, created_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7)
				`, uuid.New(), vehiculeID,
					accessoireNoms[rand.Intn(len(accessoireNoms))],
					nil,
					50.0+rand.Float64()*950.0,
					accessoireTypes[rand.Intn(len(accessoireTypes))],
					now,
				)
				if err != nil {
					return err
				}
				totalAccessoires++
			}
		}
	}

	fmt.Printf("   ✅ %d véhicules créés avec %d accessoires\n", totalVehicules, totalAccessoires)
	return nil
}
