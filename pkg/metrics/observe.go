package metrics

import (
	"strconv"
	"time"
)

type DBOperation string

const (
	DBSelect DBOperation = "select"
	DBInsert DBOperation = "insert"
	DBUpdate DBOperation = "update"
	DBDelete DBOperation = "delete"
)

// ObserveDB засекает запрос к хранилищу. Возвращенную функцию вызывают
// с итоговой ошибкой: она пишет латентность и, если err != nil, ошибку.
//
//	observe := metrics.ObserveDB(svc, metrics.DBSelect, "reviews")
//	defer func() { observe(err) }()
func ObserveDB(service string, op DBOperation, table string) func(error) {
	start := time.Now()
	return func(err error) {
		DBQueryDuration.WithLabelValues(service, string(op), table).Observe(time.Since(start).Seconds())
		if err != nil {
			DBErrors.WithLabelValues(service, string(op), table).Inc()
		}
	}
}

type RedisCommand string

const (
	RedisHGetAll RedisCommand = "hgetall"
	RedisReplace RedisCommand = "replace" // MULTI: DEL + HSET + EXPIRE
	RedisApply   RedisCommand = "apply"   // Lua скрипт с HINCRBY
	RedisDel     RedisCommand = "del"
)

func ObserveRedis(service string, cmd RedisCommand) func(error) {
	start := time.Now()
	return func(err error) {
		RedisDuration.WithLabelValues(service, string(cmd)).Observe(time.Since(start).Seconds())
		if err != nil {
			RedisErrors.WithLabelValues(service, string(cmd)).Inc()
		}
	}
}

// CacheLookup считает попадание или промах по ключу снапшота
func CacheLookup(service, key string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(service, key, result).Inc()
}

func ObserveKafkaProduce(service, topic string) func(error) {
	start := time.Now()
	return func(err error) {
		if err != nil {
			KafkaError(service, topic, "produce")
			return
		}
		KafkaProduced.WithLabelValues(service, topic).Inc()
		KafkaProduceDuration.WithLabelValues(service, topic).Observe(time.Since(start).Seconds())
	}
}

func KafkaHandled(service, topic, group string, took time.Duration) {
	KafkaConsumed.WithLabelValues(service, topic, group).Inc()
	KafkaHandleDuration.WithLabelValues(service, topic).Observe(took.Seconds())
}

// KafkaLag обновляет отставание consumer'а по high watermark из сообщения
func KafkaLag(service, topic, group string, partition int, highWaterMark, offset int64) {
	if highWaterMark <= 0 {
		return
	}
	lag := max(highWaterMark-offset-1, 0)
	KafkaConsumerLag.WithLabelValues(service, topic, group, strconv.Itoa(partition)).Set(float64(lag))
}

func KafkaError(service, topic, operation string) {
	KafkaErrors.WithLabelValues(service, topic, operation).Inc()
}
