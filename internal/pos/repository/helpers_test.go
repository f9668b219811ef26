package repository_test

import "time"

func now() time.Time {
	return time.Now().UTC()
}
