package utils

import (
	"context"
	"strings"
	"sync"

	"github.com/socioadmin/tesoreria_backend/config"
)

var mutex sync.Mutex

// GetSequence hands out the next sequence_no for a model, redis counter first,
// max(sequence_no) from db when the counter is cold. The uniqueness re-check
// guards against a stale counter after a redis flush.
func GetSequence[T any](ctx context.Context) (int64, error) {
	var model T
	mutex.Lock()
	defer mutex.Unlock()
	cacheKey := strings.ToLower(GetTypeName[T]()) + "_seq"
	var seqNo int64
	var err error
	db := config.GetDB()

	for {
		seqNo, err = config.GetRedisCounter(ctx, cacheKey)
		if err != nil {
			return 0, err
		}
		// if not found in redis, get from db
		if seqNo <= 1 {
			// get max seq no from db
			var dbSeq *int64
			if err := db.WithContext(ctx).Model(&model).Select("max(sequence_no)").
				Scan(&dbSeq).Error; err != nil {
				return 0, err
			}
			// in case db has no records yet
			if dbSeq == nil {
				seqNo = 0
			} else {
				seqNo = *dbSeq
			}
			seqNo++
			if err := config.SetRedisObject(cacheKey, &seqNo, 0); err != nil {
				return 0, err
			}
		}
		// check if sequence number exists in db
		err = ValidateUnique[T](ctx, "sequence_no", seqNo, 0)
		if err == nil {
			break
		}
	}
	return seqNo, nil
}
