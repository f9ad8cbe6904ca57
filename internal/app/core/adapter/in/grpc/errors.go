package grpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-store-ledger/internal/app/core/domain"
)

// ErrorDomain 放在 ErrorInfo.Domain
const ErrorDomain = "storeledger"

// codeOf 帳務錯誤分類對應 gRPC code
func codeOf(kind domain.ErrorKind) codes.Code {
	switch kind {
	case domain.KindNotFound:
		return codes.NotFound
	case domain.KindInsufficientFunds, domain.KindInsufficientStock, domain.KindInvalidState:
		return codes.FailedPrecondition
	case domain.KindInvalidArgument:
		return codes.InvalidArgument
	default:
		return codes.Internal
	}
}

// toStatus 將帳務錯誤轉成帶 ErrorInfo 的 gRPC status
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := domain.KindOf(err)
	if kind == 0 {
		kind = domain.KindPersistenceFailure
	}
	code := codeOf(kind)
	msg := err.Error()

	// Entity/ID 放進 metadata，message 只帶原始描述，用戶端可還原同樣的錯誤字串
	info := &errdetails.ErrorInfo{Reason: kind.String(), Domain: ErrorDomain}
	var de *domain.Error
	if errors.As(err, &de) && de.Msg != "" {
		msg = de.Msg
		if de.Entity != "" {
			info.Metadata = map[string]string{"entity": de.Entity, "id": de.ID}
		}
	}
	if code == codes.Internal {
		msg = "internal error"
		info.Metadata = nil
	}

	st, detailErr := status.New(code, msg).WithDetails(info)
	if detailErr != nil {
		return status.Error(code, msg)
	}
	return st.Err()
}

// FromError 將用戶端收到的 gRPC 錯誤還原成 domain.Error
//
// 沒有 ErrorInfo 的錯誤原樣回傳。
func FromError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != ErrorDomain {
			continue
		}
		kind := kindOf(info.GetReason())
		if kind == 0 {
			break
		}
		return &domain.Error{
			Kind:   kind,
			Msg:    st.Message(),
			Entity: info.GetMetadata()["entity"],
			ID:     info.GetMetadata()["id"],
		}
	}
	return err
}

func kindOf(reason string) domain.ErrorKind {
	for k := domain.KindNotFound; k <= domain.KindInvalidArgument; k++ {
		if k.String() == reason {
			return k
		}
	}
	return 0
}
