package db

var SQLiteDSN = sqliteDSN
