package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"edms-api/models"

	"gorm.io/gorm"
)

// registrationMutex serialises number allocation across concurrent submits.
// Submit holds it across its whole transaction: releasing it before the
// allocated number is committed would let a second submit scan the same max
// and persist a duplicate.
var registrationMutex sync.Mutex

// nextRegistrationNumber allocates the next registration number in the
// {year}-{5-digit sequence} format. The sequence continues from the highest
// previously assigned number and falls back to 1 when none exists or the
// suffix does not parse. The caller must hold registrationMutex until its
// transaction commits.
func nextRegistrationNumber(tx *gorm.DB) string {
	year := time.Now().Year()

	var last models.Document
	err := lockForUpdate(tx).Unscoped().
		Where("registration_number <> ''").
		Order("registration_number DESC").
		First(&last).Error

	seq := 1
	if err == nil {
		parts := strings.Split(last.RegistrationNumber, "-")
		if n, parseErr := strconv.Atoi(parts[len(parts)-1]); parseErr == nil {
			seq = n + 1
		}
	}

	return fmt.Sprintf("%d-%05d", year, seq)
}
