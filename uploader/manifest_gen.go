package uploader

// NOTE: THIS FILE WAS PRODUCED BY THE
// MSGP CODE GENERATION TOOL (github.com/tinylib/msgp)
// DO NOT EDIT

import "github.com/tinylib/msgp/msgp"

// MarshalMsg implements msgp.Marshaler
func (z *Manifest) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// map header, size 4
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "trace_path")
	o = msgp.AppendString(o, z.TracePath)
	o = msgp.AppendString(o, "valid")
	o = msgp.AppendBool(o, z.Valid)
	o = msgp.AppendString(o, "created_at")
	o = msgp.AppendInt64(o, z.CreatedAt)
	o = msgp.AppendString(o, "samples")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Samples)))
	for za0001 := range z.Samples {
		o, err = z.Samples[za0001].MarshalMsg(o)
		if err != nil {
			err = msgp.WrapError(err, "Samples", za0001)
			return
		}
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Manifest) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "trace_path":
			z.TracePath, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "TracePath")
				return
			}
		case "valid":
			z.Valid, bts, err = msgp.ReadBoolBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Valid")
				return
			}
		case "created_at":
			z.CreatedAt, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "CreatedAt")
				return
			}
		case "samples":
			var zb0002 uint32
			zb0002, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Samples")
				return
			}
			if cap(z.Samples) >= int(zb0002) {
				z.Samples = (z.Samples)[:zb0002]
			} else {
				z.Samples = make([]ManifestSample, zb0002)
			}
			for za0001 := range z.Samples {
				bts, err = z.Samples[za0001].UnmarshalMsg(bts)
				if err != nil {
					err = msgp.WrapError(err, "Samples", za0001)
					return
				}
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Manifest) Msgsize() (s int) {
	s = 1 + 11 + msgp.StringPrefixSize + len(z.TracePath) + 6 + msgp.BoolSize + 11 + msgp.Int64Size + 8 + msgp.ArrayHeaderSize
	for za0001 := range z.Samples {
		s += z.Samples[za0001].Msgsize()
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *ManifestSample) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	// map header, size 7
	o = msgp.AppendMapHeader(o, 7)
	o = msgp.AppendString(o, "operation")
	o = msgp.AppendString(o, z.Operation)
	o = msgp.AppendString(o, "operation_id")
	o = msgp.AppendString(o, z.OperationID)
	o = msgp.AppendString(o, "request_id")
	o = msgp.AppendString(o, z.RequestID)
	o = msgp.AppendString(o, "start_key")
	o = msgp.AppendString(o, z.StartKey)
	o = msgp.AppendString(o, "stop_key")
	o = msgp.AppendString(o, z.StopKey)
	o = msgp.AppendString(o, "start")
	o = msgp.AppendInt64(o, z.Start)
	o = msgp.AppendString(o, "duration")
	o = msgp.AppendInt64(o, z.Duration)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *ManifestSample) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "operation":
			z.Operation, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Operation")
				return
			}
		case "operation_id":
			z.OperationID, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "OperationID")
				return
			}
		case "request_id":
			z.RequestID, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "RequestID")
				return
			}
		case "start_key":
			z.StartKey, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "StartKey")
				return
			}
		case "stop_key":
			z.StopKey, bts, err = msgp.ReadStringBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "StopKey")
				return
			}
		case "start":
			z.Start, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Start")
				return
			}
		case "duration":
			z.Duration, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Duration")
				return
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *ManifestSample) Msgsize() (s int) {
	s = 1 + 10 + msgp.StringPrefixSize + len(z.Operation) + 13 + msgp.StringPrefixSize + len(z.OperationID) + 11 + msgp.StringPrefixSize + len(z.RequestID) + 10 + msgp.StringPrefixSize + len(z.StartKey) + 9 + msgp.StringPrefixSize + len(z.StopKey) + 6 + msgp.Int64Size + 9 + msgp.Int64Size
	return
}
