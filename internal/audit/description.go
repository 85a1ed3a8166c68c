package audit

import "sosach/internal/model"

// Fixed Vietnamese lexicons for the human-readable audit description shown in
// the admin activity screen.

var actionNamesVI = map[string]string{
	model.ActionLogin:       "Đăng nhập",
	model.ActionLogout:      "Đăng xuất",
	model.ActionLoginFailed: "Đăng nhập thất bại",
	model.ActionCreate:      "Tạo mới",
	model.ActionUpdate:      "Cập nhật",
	model.ActionDelete:      "Xóa",
	model.ActionView:        "Xem",
	model.ActionAssign:      "Phân công",
	model.ActionUnassign:    "Hủy phân công",
	model.ActionApprove:     "Phê duyệt",
	model.ActionReject:      "Từ chối",
	model.ActionExport:      "Xuất",
	model.ActionImport:      "Nhập",
	model.ActionBackup:      "Sao lưu",
	model.ActionRestore:     "Khôi phục",
}

var resourceNamesVI = map[string]string{
	model.ResourceUser:           "người dùng",
	model.ResourceDepartment:     "phòng ban",
	model.ResourceUnit:           "đơn vị",
	model.ResourceRank:           "cấp bậc",
	model.ResourcePosition:       "chức vụ",
	model.ResourceBook:           "sổ sách",
	model.ResourceBookEntry:      "ghi chép",
	model.ResourceNotification:   "thông báo",
	model.ResourceTaskAssignment: "nhiệm vụ",
	model.ResourceReport:         "báo cáo",
	model.ResourceAuth:           "xác thực",
	model.ResourceSystem:         "hệ thống",
}

// Describe renders the localized sentence for one audit record.
func Describe(action, resource, resourceName string) string {
	switch action {
	case model.ActionLogin:
		return "Đăng nhập vào hệ thống"
	case model.ActionLogout:
		return "Đăng xuất khỏi hệ thống"
	}

	actionName, ok := actionNamesVI[action]
	if !ok {
		actionName = action
	}
	resName, ok := resourceNamesVI[resource]
	if !ok {
		resName = resource
	}

	desc := actionName + " " + resName
	if resourceName != "" {
		desc += " \"" + resourceName + "\""
	}
	return desc
}
