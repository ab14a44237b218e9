package repositories

import (
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func requireAffected(count int64, err error, notFound error) error {
	if err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}
