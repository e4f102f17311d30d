package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// minutesPerDay borne supérieure exclusive d'une heure de la journée
const minutesPerDay = 24 * 60

// OpeningTime représente un créneau horaire immuable (Value Object).
// Les bornes sont exprimées en minutes depuis minuit.
type OpeningTime struct {
	start int
	end   int
}

// NewOpeningTime crée un créneau à partir de bornes en minutes depuis
// minuit. La fin doit être strictement après le début: un créneau de
// durée nulle est rejeté.
func NewOpeningTime(start, end int) (OpeningTime, error) {
	if start < 0 || start >= minutesPerDay {
		return OpeningTime{}, &ValidationError{Field: "startTime", Rule: "must be a valid time of day"}
	}
	if end < 0 || end >= minutesPerDay {
		return OpeningTime{}, &ValidationError{Field: "endTime", Rule: "must be a valid time of day"}
	}
	if end <= start {
		return OpeningTime{}, &ValidationError{Field: "endTime", Rule: "must be strictly after startTime"}
	}
	return OpeningTime{start: start, end: end}, nil
}

// ParseOpeningTime crée un créneau à partir d'heures au format "15:04"
func ParseOpeningTime(start, end string) (OpeningTime, error) {
	s, err := parseTimeOfDay(start)
	if err != nil {
		return OpeningTime{}, &ValidationError{Field: "startTime", Rule: err.Error()}
	}
	e, err := parseTimeOfDay(end)
	if err != nil {
		return OpeningTime{}, &ValidationError{Field: "endTime", Rule: err.Error()}
	}
	return NewOpeningTime(s, e)
}

// Overlaps vérifie si deux créneaux se chevauchent. Les bornes sont
// inclusives: un créneau finissant à 17:00 chevauche un créneau
// commençant à 17:00. La relation est commutative.
func (o OpeningTime) Overlaps(other OpeningTime) bool {
	return o.end >= other.start && other.end >= o.start
}

// Start retourne le début du créneau en minutes depuis minuit
func (o OpeningTime) Start() int {
	return o.start
}

// End retourne la fin du créneau en minutes depuis minuit
func (o OpeningTime) End() int {
	return o.end
}

// StartString retourne le début au format "15:04"
func (o OpeningTime) StartString() string {
	return formatTimeOfDay(o.start)
}

// EndString retourne la fin au format "15:04"
func (o OpeningTime) EndString() string {
	return formatTimeOfDay(o.end)
}

// String retourne le créneau au format "08:00-18:00"
func (o OpeningTime) String() string {
	return o.StartString() + "-" + o.EndString()
}

func parseTimeOfDay(s string) (int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

func formatTimeOfDay(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Horaires associe à chaque jour de la semaine ses créneaux d'ouverture
type Horaires map[time.Weekday][]OpeningTime
