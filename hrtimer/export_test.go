package hrtimer

var FromTimeval = fromTimeval
var UnitFromFrequency = unitFromFrequency
